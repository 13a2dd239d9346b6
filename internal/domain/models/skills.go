// internal/domain/models/skills.go
package models

// Skills selectable during onboarding and in group requirements.
var Skills = []string{
	"Python",
	"Java",
	"JavaScript",
	"TypeScript",
	"React",
	"Next.js",
	"Node.js",
	"Django",
	"Flask",
	"Spring Boot",
	"Machine Learning",
	"Deep Learning",
	"NLP",
	"Computer Vision",
	"TensorFlow",
	"PyTorch",
	"AWS",
	"Azure",
	"GCP",
	"Docker",
	"Kubernetes",
	"Terraform",
	"SQL",
	"MongoDB",
	"PostgreSQL",
	"Redis",
	"Cybersecurity",
	"Network Security",
	"Penetration Testing",
	"OWASP",
	"Git",
	"CI/CD",
	"REST APIs",
	"GraphQL",
	"LLMs",
	"Prompt Engineering",
	"RAG",
	"LangChain",
	"Hugging Face",
}

// Branches selectable during onboarding.
var Branches = []string{
	"Computer Science",
	"Information Technology",
	"Electronics & Communication",
	"Electrical Engineering",
	"Mechanical Engineering",
	"Civil Engineering",
	"Data Science",
	"Artificial Intelligence",
	"Cybersecurity",
}

// IsKnownSkill reports whether the skill is in the selectable catalog.
func IsKnownSkill(skill string) bool {
	for _, s := range Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// IsKnownBranch reports whether the branch is in the selectable catalog.
func IsKnownBranch(branch string) bool {
	for _, b := range Branches {
		if b == branch {
			return true
		}
	}
	return false
}

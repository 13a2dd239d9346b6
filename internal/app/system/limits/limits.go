// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxProfileFormSize is the maximum size for profile and onboarding
	// form submissions.
	MaxProfileFormSize = 256 << 10 // 256 KB

	// MaxGroupFormSize is the maximum size for group create and edit
	// form submissions.
	MaxGroupFormSize = 256 << 10 // 256 KB

	// MaxChatMessageSize is the maximum size for a chat message post.
	MaxChatMessageSize = 16 << 10 // 16 KB

	// MaxChatMessageChars is the maximum length of a chat message after
	// sanitization.
	MaxChatMessageChars = 2000
)

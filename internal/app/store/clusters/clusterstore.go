package clusterstore

import (
	"context"
	"time"

	"github.com/campushub/groupify/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clusters")}
}

// DefaultClusters is the seed set inserted at startup. Numeric IDs are
// stable so student and group references survive re-seeding.
var DefaultClusters = []models.Cluster{
	{ID: 1, Name: "Generative AI", Description: "LLMs, agents, and applied generative models"},
	{ID: 2, Name: "Full Stack + Java", Description: "Enterprise web stacks on the JVM"},
	{ID: 3, Name: "Python + ML + Cloud", Description: "Data pipelines and ML services in the cloud"},
	{ID: 4, Name: "ML + Cloud Security", Description: "Securing ML workloads and cloud platforms"},
	{ID: 5, Name: "Cloud Computing", Description: "Infrastructure, orchestration, and platform engineering"},
}

// Seed inserts any missing default clusters. Existing rows are left alone;
// clusters are immutable reference data once students point at them.
func (s *Store) Seed(ctx context.Context) error {
	for _, cluster := range DefaultClusters {
		cluster.CreatedAt = time.Now()
		if _, err := s.c.InsertOne(ctx, cluster); err != nil {
			if wafflemongo.IsDup(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// GetByID loads a single cluster.
func (s *Store) GetByID(ctx context.Context, id int) (*models.Cluster, error) {
	var cluster models.Cluster
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cluster); err != nil {
		return nil, err
	}
	return &cluster, nil
}

// List returns all clusters ordered by ID.
func (s *Store) List(ctx context.Context) ([]models.Cluster, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var clusters []models.Cluster
	if err := cur.All(ctx, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// Exists reports whether a cluster with the given ID is seeded.
func (s *Store) Exists(ctx context.Context, id int) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

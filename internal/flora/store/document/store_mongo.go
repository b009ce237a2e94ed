package document

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chimera/internal/flora/models"
	"chimera/pkg/platform/sentinel"
)

// mongoDocument is the persisted shape. Field names match what existing
// consumers of the collection read.
type mongoDocument struct {
	FloraID      string         `bson:"flora_id"`
	Image        []byte         `bson:"Image,omitempty"`
	Description  string         `bson:"Description"`
	Origin       string         `bson:"Origin"`
	OtherDetails map[string]any `bson:"OtherDetails,omitempty"`
}

func fromModel(doc models.Document) mongoDocument {
	return mongoDocument(doc)
}

func (d mongoDocument) toModel() models.Document {
	return models.Document(d)
}

// MongoStore persists documents in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique flora_id index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "flora_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure flora_id index: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, doc models.Document) error {
	if _, err := s.coll.InsertOne(ctx, fromModel(doc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("document for flora %s: %w", doc.FloraID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert document %s: %w", doc.FloraID, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, doc models.Document) (models.Document, error) {
	m := fromModel(doc)
	update := bson.M{"$set": bson.M{
		"Image":        m.Image,
		"Description":  m.Description,
		"Origin":       m.Origin,
		"OtherDetails": m.OtherDetails,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated mongoDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"flora_id": doc.FloraID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("update document %s: %w", doc.FloraID, err)
	}
	return updated.toModel(), nil
}

func (s *MongoStore) FindByFloraID(ctx context.Context, floraID string) (models.Document, error) {
	var found mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"flora_id": floraID}).Decode(&found)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("find document %s: %w", floraID, err)
	}
	return found.toModel(), nil
}

// Ping checks the deployment behind the collection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

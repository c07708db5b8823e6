package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"placement-service/internal/adaptive"
)

// MongoSessionStore persists sessions in a Mongo collection, one
// document per session keyed by session id.
type MongoSessionStore struct {
	Col *mongo.Collection
}

// NewMongoSessionStore creates a store over the "diagnostic_sessions"
// collection of the given database.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{Col: db.Collection("diagnostic_sessions")}
}

func (s *MongoSessionStore) Get(ctx context.Context, sessionID string) (*adaptive.DiagnosticSession, error) {
	var session adaptive.DiagnosticSession
	err := s.Col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *MongoSessionStore) Put(ctx context.Context, session *adaptive.DiagnosticSession) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.Col.ReplaceOne(ctx, bson.M{"_id": session.SessionID}, session, opts)
	return err
}

func (s *MongoSessionStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.Col.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}

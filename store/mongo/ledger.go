package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
)

// UpsertRun implements ledger.Store.
func (s *Store) UpsertRun(ctx context.Context, alias string, at time.Time) error {
	_, err := s.db.Collection(colRuns).UpdateOne(ctx,
		bson.M{"_id": alias},
		bson.M{"$set": bson.M{"last_start_date": at.UTC()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cronlock/mongo: upsert run: %w", err)
	}
	return nil
}

// GetRun implements ledger.Store.
func (s *Store) GetRun(ctx context.Context, alias string) (*ledger.Record, error) {
	var m runModel
	err := s.db.Collection(colRuns).FindOne(ctx, bson.M{"_id": alias}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, cronlock.ErrRunNotFound
		}
		return nil, fmt.Errorf("cronlock/mongo: get run: %w", err)
	}
	return m.record(), nil
}

// ListRuns implements ledger.Store.
func (s *Store) ListRuns(ctx context.Context) ([]*ledger.Record, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(colRuns).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("cronlock/mongo: list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var models []runModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("cronlock/mongo: list runs decode: %w", err)
	}

	out := make([]*ledger.Record, 0, len(models))
	for i := range models {
		out = append(out, models[i].record())
	}
	return out, nil
}

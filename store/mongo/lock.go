package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
)

// UpsertLock implements lock.Store.
func (s *Store) UpsertLock(ctx context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	filter := bson.M{
		"_id": cond.Resource,
		"$or": bson.A{
			bson.M{"owner_id": cond.OwnerID},
			bson.M{"acquired_at": bson.M{"$lt": cond.StaleBefore.UTC()}},
		},
	}
	update := bson.M{"$set": bson.M{
		"owner_id":    cond.OwnerID,
		"acquired_at": now.UTC(),
	}}

	res, err := s.db.Collection(colLocks).UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return lock.UpsertResult{}, cronlock.ErrLockConflict
		}
		return lock.UpsertResult{}, fmt.Errorf("cronlock/mongo: upsert lock: %w", err)
	}
	return lock.UpsertResult{
		Inserted: res.UpsertedCount > 0,
		Matched:  res.MatchedCount > 0,
	}, nil
}

// GetLock implements lock.Store.
func (s *Store) GetLock(ctx context.Context, resource string) (*lock.Record, error) {
	var m lockModel
	err := s.db.Collection(colLocks).FindOne(ctx, bson.M{"_id": resource}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, cronlock.ErrLockNotFound
		}
		return nil, fmt.Errorf("cronlock/mongo: get lock: %w", err)
	}
	return m.record(), nil
}

// DeleteLock implements lock.Store.
func (s *Store) DeleteLock(ctx context.Context, resource, ownerID string) (bool, error) {
	res, err := s.db.Collection(colLocks).DeleteOne(ctx, bson.M{"_id": resource, "owner_id": ownerID})
	if err != nil {
		return false, fmt.Errorf("cronlock/mongo: delete lock: %w", err)
	}
	return res.DeletedCount > 0, nil
}

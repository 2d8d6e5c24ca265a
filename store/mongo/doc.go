// Package mongo implements store.Store on MongoDB with the official v2
// driver.
//
// Locks are documents keyed by resource. Acquisition is a single upserting
// UpdateOne whose filter carries the ownership condition: a live lock held
// by someone else fails the filter, the upsert then collides on _id, and
// the duplicate key error is reported as cronlock.ErrLockConflict.
//
// The caller owns the client lifecycle:
//
//	client, _ := mongo.Connect(options.Client().ApplyURI(uri))
//	s := mongostore.New(client.Database("app"))
package mongo

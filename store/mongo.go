package store

import (
	"context"

	db "github.com/KanapuramVaishnavi/Core/config/db"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo talks to the database opened by the Core server bootstrap.
type Mongo struct{}

func NewMongo() *Mongo {
	return &Mongo{}
}

func (Mongo) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	rec, code, err := toDocument(collection, doc)
	if err != nil {
		return "", err
	}
	coll := db.OpenCollections(collection)
	if _, err := db.CreateOne(ctx, coll, rec); err != nil {
		return "", errors.Wrapf(err, "insert into %s", collection)
	}
	return code, nil
}

func (Mongo) FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	coll := db.OpenCollections(collection)
	err := db.FindOne(ctx, coll, filter, out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(ErrNotFound, "%s %v", collection, filter)
	}
	return errors.Wrapf(err, "find in %s", collection)
}

// FindAll decodes into typed slices, which the map-only Core FindAll cannot do.
func (Mongo) FindAll(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if filter == nil {
		filter = bson.M{}
	}
	coll := db.OpenCollections(collection)
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return errors.Wrapf(err, "find all in %s", collection)
	}
	return errors.Wrapf(cursor.All(ctx, out), "decode %s", collection)
}

func (Mongo) Update(ctx context.Context, collection, code string, patch bson.M) error {
	coll := db.OpenCollections(collection)
	res, err := db.UpdateOne(ctx, coll, ByCode(code), bson.M{"$set": patch})
	if err != nil {
		return errors.Wrapf(err, "update %s %s", collection, code)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNotFound, "%s %s", collection, code)
	}
	return nil
}

func (Mongo) Delete(ctx context.Context, collection string, filter bson.M) (int64, error) {
	coll := db.OpenCollections(collection)
	res, err := db.DeleteMany(ctx, coll, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "delete from %s", collection)
	}
	return res.DeletedCount, nil
}

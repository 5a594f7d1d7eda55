package migrations

import (
	"context"

	"TenantHub/store"

	db "github.com/KanapuramVaishnavi/Core/config/db"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BackfillDocumentLists gives every employee and project without one an empty documents list.
func BackfillDocumentLists(ctx context.Context, database *mongo.Database, log *zap.Logger) error {
	for _, coll := range []string{store.EmployeeCollection, store.ProjectCollection} {
		result, err := db.UpdateMany(
			ctx,
			database.Collection(coll),
			bson.M{"$or": bson.A{
				bson.M{"documents": bson.M{"$exists": false}},
				bson.M{"documents": nil},
			}},
			bson.M{"$set": bson.M{"documents": bson.A{}}},
			nil,
		)
		if err != nil {
			return errors.Wrapf(err, "backfill documents of %s", coll)
		}
		log.Info("Migration applied", zap.String("collection", coll), zap.Int64("updated", result.ModifiedCount))
	}
	return nil
}

package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

// UpsertUser refreshes the profile fields and seeds zero counters for first-time users.
func (r *UserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	set := bson.M{"username": user.Username, "updated_at": user.UpdatedAt}
	if user.Email != "" {
		set["email"] = user.Email
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"trust_score":         int64(0),
			"successful_reunions": int64(0),
			"created_at":          user.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	return storeErr("upsert user", err)
}

func (r *UserRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("find user", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) IncrementReputation(ctx context.Context, userID string, trustDelta, reunionsDelta int64) (*domain.User, error) {
	update := bson.M{
		"$inc": bson.M{"trust_score": trustDelta, "successful_reunions": reunionsDelta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("increment reputation", err)
	}
	return doc.toDomain(), nil
}

package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{collection: db.Collection(listingsCollection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *ListingRepository) InsertListingWithImages(ctx context.Context, listing *domain.Listing) error {
	doc := toListingDocument(listing)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return storeErr("insert listing", err)
	}

	stored := doc.toDomain()
	listing.ID = stored.ID
	listing.Images = stored.Images
	return nil
}

func (r *ListingRepository) ReplaceListing(ctx context.Context, listing *domain.Listing) error {
	oid, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return domain.ErrListingNotFound
	}

	images := toImageDocuments(listing.Images)
	filter := bson.M{"_id": oid, "owner_id": listing.OwnerID, "status": string(domain.StatusOpen)}
	update := bson.M{"$set": bson.M{
		"type":        string(listing.Type),
		"title":       listing.Title,
		"description": listing.Description,
		"category":    listing.Category,
		"location":    listing.Location,
		"event_date":  listing.EventDate,
		"is_valuable": listing.IsValuable,
		"images":      images,
		"updated_at":  listing.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr("replace listing", err)
	}
	if res.MatchedCount == 0 {
		return r.whyNotMatched(ctx, oid, listing.OwnerID)
	}

	for i, img := range images {
		listing.Images[i].ID = img.ID.Hex()
		listing.Images[i].ListingID = listing.ID
	}
	return nil
}

// UpdateListingStatus is a compare-and-swap on the current status; concurrent callers see exactly one winner.
func (r *ListingRepository) UpdateListingStatus(ctx context.Context, id string, from, to domain.ListingStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}

	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now().UTC()}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr("update listing status", err)
	}
	if res.MatchedCount == 0 {
		return r.whyNotMatched(ctx, oid, "")
	}
	return nil
}

// whyNotMatched tells a missing listing from one whose state moved on.
func (r *ListingRepository) whyNotMatched(ctx context.Context, oid primitive.ObjectID, ownerID string) error {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"status": 1, "owner_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrListingNotFound
	}
	if err != nil {
		return storeErr("inspect listing", err)
	}
	if ownerID != "" && doc.OwnerID != ownerID {
		return domain.ErrNotListingOwner
	}
	return domain.ErrListingClosed
}

func (r *ListingRepository) FindListingByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, storeErr("find listing", err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindOpenListings(ctx context.Context) ([]*domain.Listing, error) {
	return r.find(ctx, "find open listings", bson.M{"status": string(domain.StatusOpen)})
}

func (r *ListingRepository) FindListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.find(ctx, "find owner listings", bson.M{"owner_id": ownerID})
}

func (r *ListingRepository) find(ctx context.Context, op string, filter bson.M) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr(op, err)
	}

	listings := make([]*domain.Listing, len(docs))
	for i := range docs {
		listings[i] = docs[i].toDomain()
	}
	return listings, nil
}

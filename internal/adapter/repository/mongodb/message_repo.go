package mongodb

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection(messagesCollection)}
}

func (r *MessageRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDocument{
		ID:         primitive.NewObjectID(),
		ListingID:  msg.ListingID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		IsRead:     msg.IsRead,
		CreatedAt:  msg.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return storeErr("insert message", err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}

func (r *MessageRepository) FindMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	var doc messageDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, storeErr("find message", err)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) FindMessagesByListing(ctx context.Context, listingID string) ([]*domain.Message, error) {
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	return r.find(ctx, "find listing messages", bson.M{"listing_id": listingID}, sort)
}

func (r *MessageRepository) FindMessagesByReceiver(ctx context.Context, receiverID string) ([]*domain.Message, error) {
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return r.find(ctx, "find received messages", bson.M{"receiver_id": receiverID}, sort)
}

func (r *MessageRepository) MarkMessageRead(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrMessageNotFound
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return storeErr("mark message read", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) find(ctx context.Context, op string, filter bson.M, sort bson.D) ([]*domain.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr(op, err)
	}
	msgs := make([]*domain.Message, len(docs))
	for i := range docs {
		msgs[i] = docs[i].toDomain()
	}
	return msgs, nil
}

package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Images live inside the listing document so a listing and its images are written in one operation.
type listingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	Type        string             `bson:"type"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Location    string             `bson:"location"`
	EventDate   string             `bson:"event_date"`
	IsValuable  bool               `bson:"is_valuable"`
	Status      string             `bson:"status"`
	Images      []imageDocument    `bson:"images"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

type imageDocument struct {
	ID         primitive.ObjectID `bson:"id"`
	ImageURL   string             `bson:"image_url"`
	OrderIndex int                `bson:"order_index"`
}

type messageDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ListingID  string             `bson:"listing_id"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Content    string             `bson:"content"`
	IsRead     bool               `bson:"is_read"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// Provider-issued user ids are opaque strings, so they are stored as-is.
type userDocument struct {
	ID                 string    `bson:"_id"`
	Username           string    `bson:"username"`
	Email              string    `bson:"email,omitempty"`
	TrustScore         int64     `bson:"trust_score"`
	SuccessfulReunions int64     `bson:"successful_reunions"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toImageDocuments(images []domain.ListingImage) []imageDocument {
	docs := make([]imageDocument, len(images))
	for i, img := range images {
		docs[i] = imageDocument{ID: primitive.NewObjectID(), ImageURL: img.ImageURL, OrderIndex: img.OrderIndex}
	}
	return docs
}

func toListingDocument(l *domain.Listing) *listingDocument {
	return &listingDocument{
		OwnerID:     l.OwnerID,
		Type:        string(l.Type),
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Location:    l.Location,
		EventDate:   l.EventDate,
		IsValuable:  l.IsValuable,
		Status:      string(l.Status),
		Images:      toImageDocuments(l.Images),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (d *listingDocument) toDomain() *domain.Listing {
	id := d.ID.Hex()
	images := make([]domain.ListingImage, len(d.Images))
	for i, img := range d.Images {
		images[i] = domain.ListingImage{
			ID:         img.ID.Hex(),
			ListingID:  id,
			ImageURL:   img.ImageURL,
			OrderIndex: img.OrderIndex,
		}
	}
	return &domain.Listing{
		ID:          id,
		OwnerID:     d.OwnerID,
		Type:        domain.ListingType(d.Type),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Location:    d.Location,
		EventDate:   d.EventDate,
		IsValuable:  d.IsValuable,
		Status:      domain.ListingStatus(d.Status),
		Images:      images,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func (d *messageDocument) toDomain() *domain.Message {
	return &domain.Message{
		ID:         d.ID.Hex(),
		ListingID:  d.ListingID,
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Content:    d.Content,
		IsRead:     d.IsRead,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                 d.ID,
		Username:           d.Username,
		Email:              d.Email,
		TrustScore:         d.TrustScore,
		SuccessfulReunions: d.SuccessfulReunions,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

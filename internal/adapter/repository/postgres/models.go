package postgres

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/google/uuid"
)

type UserModel struct {
	ID                 string `gorm:"primaryKey;size:128"`
	Username           string `gorm:"size:255;not null"`
	Email              string `gorm:"size:255"`
	TrustScore         int64  `gorm:"not null;default:0"`
	SuccessfulReunions int64  `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (UserModel) TableName() string {
	return "users"
}

type ListingModel struct {
	ID          string              `gorm:"primaryKey;size:36"`
	OwnerID     string              `gorm:"size:128;not null;index:idx_listings_owner_created,priority:1"`
	Type        string              `gorm:"size:16;not null"`
	Title       string              `gorm:"type:text;not null"`
	Description string              `gorm:"type:text;not null"`
	Category    string              `gorm:"size:255;not null"`
	Location    string              `gorm:"type:text;not null"`
	EventDate   string              `gorm:"size:10;not null"`
	IsValuable  bool                `gorm:"not null;default:false"`
	Status      string              `gorm:"size:16;not null;index:idx_listings_status_created,priority:1"`
	Images      []ListingImageModel `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"not null;index:idx_listings_status_created,priority:2;index:idx_listings_owner_created,priority:2"`
	UpdatedAt   time.Time
}

func (ListingModel) TableName() string {
	return "listings"
}

type ListingImageModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	ListingID  string `gorm:"size:36;not null;index"`
	ImageURL   string `gorm:"type:text;not null"`
	OrderIndex int    `gorm:"not null"`
}

func (ListingImageModel) TableName() string {
	return "listing_images"
}

type MessageModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ListingID  string    `gorm:"size:36;not null;index:idx_messages_listing_created,priority:1"`
	SenderID   string    `gorm:"size:128;not null"`
	ReceiverID string    `gorm:"size:128;not null;index:idx_messages_receiver_created,priority:1"`
	Content    string    `gorm:"type:text;not null"`
	IsRead     bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null;index:idx_messages_listing_created,priority:2;index:idx_messages_receiver_created,priority:2"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func newImageModels(listingID string, images []domain.ListingImage) []ListingImageModel {
	models := make([]ListingImageModel, len(images))
	for i, img := range images {
		models[i] = ListingImageModel{
			ID:         uuid.NewString(),
			ListingID:  listingID,
			ImageURL:   img.ImageURL,
			OrderIndex: img.OrderIndex,
		}
	}
	return models
}

func imagesToDomain(models []ListingImageModel) []domain.ListingImage {
	images := make([]domain.ListingImage, len(models))
	for i, m := range models {
		images[i] = domain.ListingImage{
			ID:         m.ID,
			ListingID:  m.ListingID,
			ImageURL:   m.ImageURL,
			OrderIndex: m.OrderIndex,
		}
	}
	return images
}

func (m *ListingModel) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Type:        domain.ListingType(m.Type),
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Location:    m.Location,
		EventDate:   m.EventDate,
		IsValuable:  m.IsValuable,
		Status:      domain.ListingStatus(m.Status),
		Images:      imagesToDomain(m.Images),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (m *MessageModel) toDomain() *domain.Message {
	return &domain.Message{
		ID:         m.ID,
		ListingID:  m.ListingID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

func (m *UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:                 m.ID,
		Username:           m.Username,
		Email:              m.Email,
		TrustScore:         m.TrustScore,
		SuccessfulReunions: m.SuccessfulReunions,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

package http

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

type listingRequest struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	EventDate   string   `json:"event_date"`
	IsValuable  bool     `json:"is_valuable"`
	Images      []string `json:"images"`
}

func (req listingRequest) draft() domain.ListingDraft {
	return domain.ListingDraft{
		Type:        domain.ListingType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		EventDate:   req.EventDate,
		IsValuable:  req.IsValuable,
	}
}

type imageResponse struct {
	ID         string `json:"id"`
	ImageURL   string `json:"image_url"`
	OrderIndex int    `json:"order_index"`
}

type listingResponse struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Location    string          `json:"location"`
	EventDate   string          `json:"event_date"`
	IsValuable  bool            `json:"is_valuable"`
	Status      string          `json:"status"`
	Images      []imageResponse `json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	images := make([]imageResponse, len(l.Images))
	for i, img := range l.Images {
		images[i] = imageResponse{ID: img.ID, ImageURL: img.ImageURL, OrderIndex: img.OrderIndex}
	}
	return listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Type:        string(l.Type),
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Location:    l.Location,
		EventDate:   l.EventDate,
		IsValuable:  l.IsValuable,
		Status:      string(l.Status),
		Images:      images,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toListingResponses(listings []*domain.Listing) []listingResponse {
	out := make([]listingResponse, len(listings))
	for i, l := range listings {
		out[i] = toListingResponse(l)
	}
	return out
}

type profileResponse struct {
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	TrustScore         int64  `json:"trust_score"`
	SuccessfulReunions int64  `json:"successful_reunions"`
}

func toProfileResponse(p domain.PublicProfile) profileResponse {
	return profileResponse{
		UserID:             p.UserID,
		Username:           p.Username,
		TrustScore:         p.TrustScore,
		SuccessfulReunions: p.SuccessfulReunions,
	}
}

type listingDetailsResponse struct {
	Listing listingResponse `json:"listing"`
	Owner   profileResponse `json:"owner"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		ListingID:  m.ListingID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func toMessageResponses(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageResponse(m)
	}
	return out
}

type reunionResponse struct {
	Listing      listingResponse `json:"listing"`
	CreditedUser profileResponse `json:"credited_user"`
	MessageID    string          `json:"message_id"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

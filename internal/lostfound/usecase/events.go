package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	SubjectListingCreated   = "lostfound.listing.created"
	SubjectListingUpdated   = "lostfound.listing.updated"
	SubjectListingClosed    = "lostfound.listing.closed"
	SubjectMessageSent      = "lostfound.message.sent"
	SubjectReunionConfirmed = "lostfound.reunion.confirmed"
)

type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	OwnerID    string    `json:"owner_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

type MessageEvent struct {
	MessageID  string    `json:"message_id"`
	ListingID  string    `json:"listing_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReunionEvent struct {
	ListingID          string    `json:"listing_id"`
	OwnerID            string    `json:"owner_id"`
	CreditedUserID     string    `json:"credited_user_id"`
	TrustScore         int64     `json:"trust_score"`
	SuccessfulReunions int64     `json:"successful_reunions"`
	OccurredAt         time.Time `json:"occurred_at"`
}

func newListingEvent(l *domain.Listing, at time.Time) ListingEvent {
	return ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		Type:       string(l.Type),
		Status:     string(l.Status),
		Title:      l.Title,
		OccurredAt: at,
	}
}

// publish is fire-and-forget: the write it describes is already durable.
func publish(ctx context.Context, events EventPublisher, log *logger.Logger, subject string, payload interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, subject, payload); err != nil {
		log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func invalidate(ctx context.Context, cache ListingCache, log *logger.Logger, listingID string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, listingID); err != nil {
		log.Warn("failed to invalidate listing cache", zap.String("listing_id", listingID), zap.Error(err))
	}
}

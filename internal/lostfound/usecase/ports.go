package usecase

import (
	"context"
	"io"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

// ListingCache is a read-through cache for single listings. Get returns nil, nil on a miss.
type ListingCache interface {
	Get(ctx context.Context, id string) (*domain.Listing, error)
	Set(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// NewMessageNotice is what the listing owner is told when someone writes to them.
type NewMessageNotice struct {
	RecipientEmail string
	RecipientName  string
	SenderName     string
	ListingID      string
	ListingTitle   string
	Content        string
}

type Notifier interface {
	NotifyNewMessage(ctx context.Context, notice NewMessageNotice) error
}

// MediaStore keeps image payloads and returns a URL clients can load them from.
type MediaStore interface {
	Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader, size int64) (string, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func profileFromIdentity(id domain.Identity, now time.Time) *domain.User {
	return &domain.User{
		ID:        id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

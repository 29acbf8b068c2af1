package usecase

import (
	"context"
	"io"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) InsertListingWithImages(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) ReplaceListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) UpdateListingStatus(ctx context.Context, id string, from, to domain.ListingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
func (m *MockListingRepository) FindListingByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindOpenListings(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockMessageRepository struct{ mock.Mock }

func (m *MockMessageRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MockMessageRepository) FindMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}
func (m *MockMessageRepository) FindMessagesByListing(ctx context.Context, listingID string) ([]*domain.Message, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}
func (m *MockMessageRepository) FindMessagesByReceiver(ctx context.Context, receiverID string) ([]*domain.Message, error) {
	args := m.Called(ctx, receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}
func (m *MockMessageRepository) MarkMessageRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepository) IncrementReputation(ctx context.Context, userID string, trustDelta, reunionsDelta int64) (*domain.User, error) {
	args := m.Called(ctx, userID, trustDelta, reunionsDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) Get(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) Set(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingCache) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyNewMessage(ctx context.Context, notice NewMessageNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

type MockMediaStore struct{ mock.Mock }

func (m *MockMediaStore) Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, folder, fileName, contentType, r, size)
	return args.String(0), args.Error(1)
}

// inlineTx runs the unit of work directly on the caller's context.
type inlineTx struct{ calls int }

func (t *inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

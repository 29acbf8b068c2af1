package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB runs the repositories against SQLite. A single connection keeps
// transactions and concurrent writers serialized the way a row lock would.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "lostfound.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: NewGormLogger(logger.NewNop())})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newTestListing(owner string, createdAt time.Time, urls ...string) *domain.Listing {
	images := make([]domain.ListingImage, len(urls))
	for i, u := range urls {
		images[i] = domain.ListingImage{ImageURL: u, OrderIndex: i}
	}
	return &domain.Listing{
		OwnerID:     owner,
		Type:        domain.TypeLost,
		Title:       "Black wallet",
		Description: "Leather wallet near the station",
		Category:    "Bags & Wallets",
		Location:    "Central station",
		EventDate:   "2024-05-01",
		Status:      domain.StatusOpen,
		Images:      images,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestListingRepository_InsertAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	listing := newTestListing("owner-1", now, "https://img/1.jpg", "https://img/2.jpg")
	require.NoError(t, repo.InsertListingWithImages(ctx, listing))
	require.NotEmpty(t, listing.ID)
	require.Len(t, listing.Images, 2)
	assert.Equal(t, listing.ID, listing.Images[0].ListingID)

	got, err := repo.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Black wallet", got.Title)
	assert.Equal(t, domain.StatusOpen, got.Status)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://img/1.jpg", got.Images[0].ImageURL)
	assert.Equal(t, 1, got.Images[1].OrderIndex)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = repo.FindListingByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListingRepository_FindOpenListingsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := newTestListing("owner-1", base)
	newer := newTestListing("owner-2", base.Add(time.Minute))
	closed := newTestListing("owner-1", base.Add(2*time.Minute))
	for _, l := range []*domain.Listing{older, newer, closed} {
		require.NoError(t, repo.InsertListingWithImages(ctx, l))
	}
	require.NoError(t, repo.UpdateListingStatus(ctx, closed.ID, domain.StatusOpen, domain.StatusClosed))

	open, err := repo.FindOpenListings(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, newer.ID, open[0].ID)
	assert.Equal(t, older.ID, open[1].ID)

	mine, err := repo.FindListingsByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, closed.ID, mine[0].ID)
	assert.Equal(t, domain.StatusClosed, mine[0].Status)
}

func TestListingRepository_UpdateListingStatusConcurrent(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	listing := newTestListing("owner-1", time.Now().UTC())
	require.NoError(t, repo.InsertListingWithImages(ctx, listing))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.UpdateListingStatus(ctx, listing.ID, domain.StatusOpen, domain.StatusClosed)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	err := repo.UpdateListingStatus(ctx, "missing", domain.StatusOpen, domain.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestListingRepository_ReplaceListing(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	listing := newTestListing("owner-1", time.Now().UTC(), "https://img/a.jpg", "https://img/b.jpg")
	require.NoError(t, repo.InsertListingWithImages(ctx, listing))

	listing.Title = "Brown wallet"
	listing.IsValuable = true
	listing.Images = []domain.ListingImage{{ImageURL: "https://img/c.jpg", OrderIndex: 0}}
	require.NoError(t, repo.ReplaceListing(ctx, listing))

	got, err := repo.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brown wallet", got.Title)
	assert.True(t, got.IsValuable)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://img/c.jpg", got.Images[0].ImageURL)

	var imageRows int64
	require.NoError(t, db.Model(&ListingImageModel{}).Where("listing_id = ?", listing.ID).Count(&imageRows).Error)
	assert.Equal(t, int64(1), imageRows)

	stranger := *listing
	stranger.OwnerID = "someone-else"
	assert.ErrorIs(t, repo.ReplaceListing(ctx, &stranger), domain.ErrNotListingOwner)

	require.NoError(t, repo.UpdateListingStatus(ctx, listing.ID, domain.StatusOpen, domain.StatusClosed))
	assert.ErrorIs(t, repo.ReplaceListing(ctx, listing), domain.ErrListingClosed)
}

func TestMessageRepository(t *testing.T) {
	db := openTestDB(t)
	listings := NewListingRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	listing := newTestListing("owner-1", base)
	require.NoError(t, listings.InsertListingWithImages(ctx, listing))

	first := &domain.Message{ListingID: listing.ID, SenderID: "finder", ReceiverID: "owner-1", Content: "I found it", CreatedAt: base}
	second := &domain.Message{ListingID: listing.ID, SenderID: "owner-1", ReceiverID: "finder", Content: "Great", CreatedAt: base.Add(time.Second)}
	require.NoError(t, repo.InsertMessage(ctx, first))
	require.NoError(t, repo.InsertMessage(ctx, second))
	require.NotEmpty(t, first.ID)

	thread, err := repo.FindMessagesByListing(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, second.ID, thread[1].ID)

	inbox, err := repo.FindMessagesByReceiver(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.False(t, inbox[0].IsRead)

	require.NoError(t, repo.MarkMessageRead(ctx, first.ID))
	got, err := repo.FindMessageByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	assert.ErrorIs(t, repo.MarkMessageRead(ctx, "missing"), domain.ErrMessageNotFound)
	_, err = repo.FindMessageByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.UpsertUser(ctx, &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}))

	updated, err := repo.IncrementReputation(ctx, "u1", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.TrustScore)
	assert.Equal(t, int64(1), updated.SuccessfulReunions)

	require.NoError(t, repo.UpsertUser(ctx, &domain.User{ID: "u1", Username: "alice2", CreatedAt: now, UpdatedAt: now}))
	got, err := repo.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, int64(10), got.TrustScore)
	assert.Equal(t, int64(1), got.SuccessfulReunions)

	_, err = repo.IncrementReputation(ctx, "ghost", 10, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.FindUserByID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	tx := NewTransactor(db)
	listings := NewListingRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	listing := newTestListing("owner-1", now)
	require.NoError(t, listings.InsertListingWithImages(ctx, listing))
	require.NoError(t, users.UpsertUser(ctx, &domain.User{ID: "finder", Username: "bob", CreatedAt: now, UpdatedAt: now}))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := listings.UpdateListingStatus(ctx, listing.ID, domain.StatusOpen, domain.StatusClosed); err != nil {
			return err
		}
		if _, err := users.IncrementReputation(ctx, "finder", 10, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := listings.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, got.Status)

	user, err := users.FindUserByID(ctx, "finder")
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.TrustScore)

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := listings.UpdateListingStatus(ctx, listing.ID, domain.StatusOpen, domain.StatusClosed); err != nil {
			return err
		}
		_, err := users.IncrementReputation(ctx, "finder", 10, 1)
		return err
	})
	require.NoError(t, err)

	user, err = users.FindUserByID(ctx, "finder")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.TrustScore)
}

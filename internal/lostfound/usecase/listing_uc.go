package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ListingUsecase owns listing creation, edits and the open -> closed transition.
type ListingUsecase struct {
	listings     domain.ListingRepository
	users        domain.UserRepository
	cache        ListingCache
	events       EventPublisher
	logger       *logger.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// NewListingUsecase accepts a nil cache or publisher to run without them.
func NewListingUsecase(
	listings domain.ListingRepository,
	users domain.UserRepository,
	cache ListingCache,
	events EventPublisher,
	log *logger.Logger,
	storeTimeout time.Duration,
) *ListingUsecase {
	return &ListingUsecase{
		listings:     listings,
		users:        users,
		cache:        cache,
		events:       events,
		logger:       log.Named("ListingUsecase"),
		storeTimeout: storeTimeout,
		now:          utcNow,
	}
}

func (uc *ListingUsecase) CreateListing(ctx context.Context, owner domain.Identity, draft domain.ListingDraft, imageURLs []string) (*domain.Listing, error) {
	if strings.TrimSpace(owner.UserID) == "" {
		return nil, domain.Invalid("owner", "identity is required")
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateImageURLs(imageURLs); err != nil {
		return nil, err
	}

	now := uc.now()
	listing := &domain.Listing{
		OwnerID:   owner.UserID,
		Status:    domain.StatusOpen,
		Images:    domain.BuildImages(imageURLs),
		CreatedAt: now,
		UpdatedAt: now,
	}
	draft.Apply(listing)

	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.users.UpsertUser(sctx, profileFromIdentity(owner, now)); err != nil {
		uc.logger.Error("failed to record owner profile", zap.String("user_id", owner.UserID), zap.Error(err))
		return nil, domain.Unavailable("record owner profile", err)
	}
	if err := uc.listings.InsertListingWithImages(sctx, listing); err != nil {
		uc.logger.Error("failed to insert listing", zap.String("user_id", owner.UserID), zap.Error(err))
		return nil, domain.Unavailable("insert listing", err)
	}

	uc.logger.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", listing.OwnerID),
		zap.String("type", string(listing.Type)),
		zap.Int("images", len(listing.Images)),
	)
	publish(ctx, uc.events, uc.logger, SubjectListingCreated, newListingEvent(listing, now))
	return listing, nil
}

// UpdateListing replaces every owner-editable field and the image set of an open listing.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, listingID, actorID string, draft domain.ListingDraft, imageURLs []string) (*domain.Listing, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateImageURLs(imageURLs); err != nil {
		return nil, err
	}

	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	current, err := uc.ownedOpenListing(sctx, listingID, actorID)
	if err != nil {
		return nil, err
	}

	updated := *current
	draft.Apply(&updated)
	updated.Images = domain.BuildImages(imageURLs)
	updated.UpdatedAt = uc.now()

	if err := uc.listings.ReplaceListing(sctx, &updated); err != nil {
		uc.logger.Warn("failed to replace listing", zap.String("listing_id", listingID), zap.Error(err))
		return nil, domain.Unavailable("replace listing", err)
	}

	invalidate(ctx, uc.cache, uc.logger, listingID)
	uc.logger.Info("listing updated", zap.String("listing_id", listingID), zap.String("actor_id", actorID))
	publish(ctx, uc.events, uc.logger, SubjectListingUpdated, newListingEvent(&updated, updated.UpdatedAt))
	return &updated, nil
}

func (uc *ListingUsecase) CloseListing(ctx context.Context, listingID, actorID string) (*domain.Listing, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	listing, err := uc.ownedOpenListing(sctx, listingID, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.listings.UpdateListingStatus(sctx, listingID, domain.StatusOpen, domain.StatusClosed); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.logger.Info("listing closed concurrently", zap.String("listing_id", listingID))
		}
		return nil, domain.Unavailable("close listing", err)
	}
	listing.Status = domain.StatusClosed
	listing.UpdatedAt = uc.now()

	invalidate(ctx, uc.cache, uc.logger, listingID)
	uc.logger.Info("listing closed", zap.String("listing_id", listingID), zap.String("actor_id", actorID))
	publish(ctx, uc.events, uc.logger, SubjectListingClosed, newListingEvent(listing, listing.UpdatedAt))
	return listing, nil
}

func (uc *ListingUsecase) ownedOpenListing(ctx context.Context, listingID, actorID string) (*domain.Listing, error) {
	listing, err := uc.listings.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, domain.Unavailable("find listing", err)
	}
	if listing.OwnerID != actorID {
		uc.logger.Warn("non-owner tried to modify listing",
			zap.String("listing_id", listingID),
			zap.String("owner_id", listing.OwnerID),
			zap.String("actor_id", actorID),
		)
		return nil, domain.ErrNotListingOwner
	}
	if !listing.IsOpen() {
		return nil, domain.ErrListingClosed
	}
	return listing, nil
}

// GetListing returns the listing with its images and the owner's current public profile.
func (uc *ListingUsecase) GetListing(ctx context.Context, listingID string) (*domain.ListingDetails, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	listing := uc.cachedListing(sctx, listingID)
	if listing == nil {
		var err error
		listing, err = uc.listings.FindListingByID(sctx, listingID)
		if err != nil {
			return nil, domain.Unavailable("find listing", err)
		}
		if uc.cache != nil {
			if err := uc.cache.Set(sctx, listing); err != nil {
				uc.logger.Warn("failed to cache listing", zap.String("listing_id", listingID), zap.Error(err))
			}
		}
	}

	details := &domain.ListingDetails{Listing: listing, Owner: domain.PublicProfile{UserID: listing.OwnerID}}
	owner, err := uc.users.FindUserByID(sctx, listing.OwnerID)
	switch {
	case err == nil:
		details.Owner = owner.Public()
	case errors.Is(err, domain.ErrNotFound):
		uc.logger.Warn("listing owner has no profile", zap.String("listing_id", listingID), zap.String("owner_id", listing.OwnerID))
	default:
		return nil, domain.Unavailable("find owner profile", err)
	}
	return details, nil
}

func (uc *ListingUsecase) cachedListing(ctx context.Context, listingID string) *domain.Listing {
	if uc.cache == nil {
		return nil
	}
	listing, err := uc.cache.Get(ctx, listingID)
	if err != nil {
		uc.logger.Warn("listing cache read failed", zap.String("listing_id", listingID), zap.Error(err))
		return nil
	}
	return listing
}

// SearchListings runs the type and text filter over the current open-listing snapshot.
func (uc *ListingUsecase) SearchListings(ctx context.Context, filter domain.TypeFilter, query string) ([]*domain.Listing, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	open, err := uc.listings.FindOpenListings(sctx)
	if err != nil {
		uc.logger.Error("failed to load open listings", zap.Error(err))
		return nil, domain.Unavailable("find open listings", err)
	}
	result := domain.Search(open, filter, query)
	uc.logger.Debug("search executed",
		zap.String("filter", string(filter)),
		zap.String("query", query),
		zap.Int("snapshot", len(open)),
		zap.Int("matches", len(result)),
	)
	return result, nil
}

// ListOwnerListings returns all of an owner's listings, closed ones included, newest first.
func (uc *ListingUsecase) ListOwnerListings(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	sctx, cancel := withTimeout(ctx, uc.storeTimeout)
	defer cancel()

	listings, err := uc.listings.FindListingsByOwner(sctx, ownerID)
	if err != nil {
		return nil, domain.Unavailable("find owner listings", err)
	}
	return listings, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC")
}

// InsertListingWithImages writes the listing row and its image rows in one transaction.
func (r *ListingRepository) InsertListingWithImages(ctx context.Context, listing *domain.Listing) error {
	id := uuid.NewString()
	model := ListingModel{
		ID:          id,
		OwnerID:     listing.OwnerID,
		Type:        string(listing.Type),
		Title:       listing.Title,
		Description: listing.Description,
		Category:    listing.Category,
		Location:    listing.Location,
		EventDate:   listing.EventDate,
		IsValuable:  listing.IsValuable,
		Status:      string(listing.Status),
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
	images := newImageModels(id, listing.Images)

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&model).Error; err != nil {
			return err
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("insert listing", err)
	}

	listing.ID = id
	listing.Images = imagesToDomain(images)
	return nil
}

func (r *ListingRepository) ReplaceListing(ctx context.Context, listing *domain.Listing) error {
	images := newImageModels(listing.ID, listing.Images)

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ListingModel{}).
			Where("id = ? AND owner_id = ? AND status = ?", listing.ID, listing.OwnerID, string(domain.StatusOpen)).
			Updates(map[string]interface{}{
				"type":        string(listing.Type),
				"title":       listing.Title,
				"description": listing.Description,
				"category":    listing.Category,
				"location":    listing.Location,
				"event_date":  listing.EventDate,
				"is_valuable": listing.IsValuable,
				"updated_at":  listing.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return whyNotMatched(tx, listing.ID, listing.OwnerID)
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&ListingImageModel{}).Error; err != nil {
			return err
		}
		if len(images) > 0 {
			return tx.Create(&images).Error
		}
		return nil
	})
	if err != nil {
		return storeErr("replace listing", err)
	}

	listing.Images = imagesToDomain(images)
	return nil
}

// UpdateListingStatus is a compare-and-swap on the current status; concurrent callers see exactly one winner.
func (r *ListingRepository) UpdateListingStatus(ctx context.Context, id string, from, to domain.ListingStatus) error {
	db := conn(ctx, r.db)
	res := db.Model(&ListingModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return storeErr("update listing status", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeErr("inspect listing", whyNotMatched(db, id, ""))
	}
	return nil
}

func whyNotMatched(db *gorm.DB, id, ownerID string) error {
	var m ListingModel
	err := db.Select("id", "owner_id", "status").Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrListingNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != "" && m.OwnerID != ownerID {
		return domain.ErrNotListingOwner
	}
	return domain.ErrListingClosed
}

func (r *ListingRepository) FindListingByID(ctx context.Context, id string) (*domain.Listing, error) {
	var m ListingModel
	err := conn(ctx, r.db).Preload("Images", orderedImages).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, storeErr("find listing", err)
	}
	return m.toDomain(), nil
}

func (r *ListingRepository) FindOpenListings(ctx context.Context) ([]*domain.Listing, error) {
	return r.find(ctx, "find open listings", "status = ?", string(domain.StatusOpen))
}

func (r *ListingRepository) FindListingsByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.find(ctx, "find owner listings", "owner_id = ?", ownerID)
}

func (r *ListingRepository) find(ctx context.Context, op string, where string, arg interface{}) ([]*domain.Listing, error) {
	var models []ListingModel
	err := conn(ctx, r.db).
		Preload("Images", orderedImages).
		Where(where, arg).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, storeErr(op, err)
	}

	listings := make([]*domain.Listing, len(models))
	for i := range models {
		listings[i] = models[i].toDomain()
	}
	return listings, nil
}

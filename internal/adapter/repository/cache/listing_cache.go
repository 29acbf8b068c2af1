package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "listing:"

// NewRedisClient connects and pings with a bounded wait.
func NewRedisClient(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", addr))
	return rdb, nil
}

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

type cachedImage struct {
	ID         string `json:"id"`
	ImageURL   string `json:"image_url"`
	OrderIndex int    `json:"order_index"`
}

type cachedListing struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Location    string        `json:"location"`
	EventDate   string        `json:"event_date"`
	IsValuable  bool          `json:"is_valuable"`
	Status      string        `json:"status"`
	Images      []cachedImage `json:"images"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func fromDomain(l *domain.Listing) cachedListing {
	images := make([]cachedImage, len(l.Images))
	for i, img := range l.Images {
		images[i] = cachedImage{ID: img.ID, ImageURL: img.ImageURL, OrderIndex: img.OrderIndex}
	}
	return cachedListing{
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

func (c cachedListing) toDomain() *domain.Listing {
	images := make([]domain.ListingImage, len(c.Images))
	for i, img := range c.Images {
		images[i] = domain.ListingImage{ID: img.ID, ListingID: c.ID, ImageURL: img.ImageURL, OrderIndex: img.OrderIndex}
	}
	return &domain.Listing{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Type:        domain.ListingType(c.Type),
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Location:    c.Location,
		EventDate:   c.EventDate,
		IsValuable:  c.IsValuable,
		Status:      domain.ListingStatus(c.Status),
		Images:      images,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// Get returns nil, nil on a cache miss.
func (c *ListingCache) Get(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get listing %s: %w", id, err)
	}

	var cached cachedListing
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		_ = c.client.Del(ctx, keyPrefix+id).Err()
		return nil, nil
	}
	return cached.toDomain(), nil
}

func (c *ListingCache) Set(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(fromDomain(listing))
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", listing.ID, err)
	}
	if err := c.client.Set(ctx, keyPrefix+listing.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set listing %s: %w", listing.ID, err)
	}
	c.logger.Debug("Listing cached", zap.String("listing_id", listing.ID), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *ListingCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete listing %s: %w", id, err)
	}
	return nil
}

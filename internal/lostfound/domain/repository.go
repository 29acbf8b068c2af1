package domain

import "context"

// ListingRepository persists listings together with their images.
type ListingRepository interface {
	// InsertListingWithImages stores the listing and its images as one unit and assigns their IDs.
	InsertListingWithImages(ctx context.Context, listing *Listing) error
	// ReplaceListing overwrites the editable fields and images of an open listing.
	ReplaceListing(ctx context.Context, listing *Listing) error
	// UpdateListingStatus moves a listing from one status to another only if it is still in from.
	// It returns ErrListingNotFound or ErrListingClosed when the swap does not apply.
	UpdateListingStatus(ctx context.Context, id string, from, to ListingStatus) error
	FindListingByID(ctx context.Context, id string) (*Listing, error)
	// FindOpenListings returns every open listing, newest first.
	FindOpenListings(ctx context.Context) ([]*Listing, error)
	FindListingsByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *Message) error
	FindMessageByID(ctx context.Context, id string) (*Message, error)
	// FindMessagesByListing returns the thread oldest first.
	FindMessagesByListing(ctx context.Context, listingID string) ([]*Message, error)
	// FindMessagesByReceiver returns received messages newest first.
	FindMessagesByReceiver(ctx context.Context, receiverID string) ([]*Message, error)
	MarkMessageRead(ctx context.Context, id string) error
}

type UserRepository interface {
	// UpsertUser records the identity's profile, leaving reputation counters untouched for existing users.
	UpsertUser(ctx context.Context, user *User) error
	FindUserByID(ctx context.Context, id string) (*User, error)
	// IncrementReputation applies both deltas in one atomic update and returns the updated user.
	IncrementReputation(ctx context.Context, userID string, trustDelta, reunionsDelta int64) (*User, error)
}

// Transactor runs fn as a single unit of work. Repositories called with the ctx passed to fn join it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

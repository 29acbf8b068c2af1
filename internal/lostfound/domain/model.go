package domain

import "time"

type ListingType string

const (
	TypeLost  ListingType = "lost"
	TypeFound ListingType = "found"
)

func (t ListingType) Valid() bool {
	return t == TypeLost || t == TypeFound
}

type ListingStatus string

const (
	StatusOpen   ListingStatus = "open"
	StatusClosed ListingStatus = "closed"
)

const (
	MaxListingImages = 5
	EventDateLayout  = "2006-01-02"
)

// Categories offered to clients when posting. Category itself is free text.
var Categories = []string{
	"Electronics",
	"Jewelry",
	"Clothing",
	"Bags & Wallets",
	"Keys",
	"Documents",
	"Toys",
	"Books",
	"Sports Equipment",
	"Other",
}

// Identity is what the identity provider vouches for on an authenticated request.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

type User struct {
	ID                 string
	Username           string
	Email              string
	TrustScore         int64
	SuccessfulReunions int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicProfile is the part of a user shown next to their listings.
type PublicProfile struct {
	UserID             string
	Username           string
	TrustScore         int64
	SuccessfulReunions int64
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		UserID:             u.ID,
		Username:           u.Username,
		TrustScore:         u.TrustScore,
		SuccessfulReunions: u.SuccessfulReunions,
	}
}

type ListingImage struct {
	ID         string
	ListingID  string
	ImageURL   string
	OrderIndex int
}

type Listing struct {
	ID          string
	OwnerID     string
	Type        ListingType
	Title       string
	Description string
	Category    string
	Location    string
	EventDate   string
	IsValuable  bool
	Status      ListingStatus
	Images      []ListingImage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l *Listing) IsOpen() bool {
	return l.Status == StatusOpen
}

// ListingDetails is a listing joined with its owner's public profile.
type ListingDetails struct {
	Listing *Listing
	Owner   PublicProfile
}

type Message struct {
	ID         string
	ListingID  string
	SenderID   string
	ReceiverID string
	Content    string
	IsRead     bool
	CreatedAt  time.Time
}

// ReunionResult reports the closed listing and whose reputation was credited.
type ReunionResult struct {
	Listing      *Listing
	CreditedUser *User
	MessageID    string
}

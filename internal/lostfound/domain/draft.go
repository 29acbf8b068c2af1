package domain

import (
	"strings"
	"time"
)

// ListingDraft carries the owner-editable fields of a listing.
type ListingDraft struct {
	Type        ListingType
	Title       string
	Description string
	Category    string
	Location    string
	EventDate   string
	IsValuable  bool
}

// Normalize trims surrounding whitespace from every text field.
func (d ListingDraft) Normalize() ListingDraft {
	d.Type = ListingType(strings.ToLower(strings.TrimSpace(string(d.Type))))
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.Location = strings.TrimSpace(d.Location)
	d.EventDate = strings.TrimSpace(d.EventDate)
	return d
}

// Validate expects a normalized draft.
func (d ListingDraft) Validate() error {
	if !d.Type.Valid() {
		return Invalid("type", "must be lost or found")
	}
	required := []struct{ name, value string }{
		{"title", d.Title},
		{"description", d.Description},
		{"category", d.Category},
		{"location", d.Location},
		{"event_date", d.EventDate},
	}
	for _, f := range required {
		if f.value == "" {
			return Invalid(f.name, "is required")
		}
	}
	if _, err := time.Parse(EventDateLayout, d.EventDate); err != nil {
		return Invalid("event_date", "must be a YYYY-MM-DD date")
	}
	return nil
}

// ValidateImageURLs checks the 1..5 cardinality and that no URL is blank.
func ValidateImageURLs(urls []string) error {
	if len(urls) == 0 {
		return Invalid("images", "at least one image is required")
	}
	if len(urls) > MaxListingImages {
		return Invalid("images", "at most 5 images are allowed")
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return Invalid("images", "image url must not be empty")
		}
	}
	return nil
}

// BuildImages turns submitted URLs into images whose OrderIndex is the submission position.
func BuildImages(urls []string) []ListingImage {
	images := make([]ListingImage, len(urls))
	for i, u := range urls {
		images[i] = ListingImage{ImageURL: strings.TrimSpace(u), OrderIndex: i}
	}
	return images
}

// Apply copies the draft's fields onto the listing, leaving identity and lifecycle fields alone.
func (d ListingDraft) Apply(l *Listing) {
	l.Type = d.Type
	l.Title = d.Title
	l.Description = d.Description
	l.Category = d.Category
	l.Location = d.Location
	l.EventDate = d.EventDate
	l.IsValuable = d.IsValuable
}

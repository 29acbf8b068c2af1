package domain

import "strings"

type TypeFilter string

const (
	FilterAll   TypeFilter = "all"
	FilterLost  TypeFilter = "lost"
	FilterFound TypeFilter = "found"
)

// ParseTypeFilter treats an empty value as FilterAll.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterLost, FilterFound:
		return f, nil
	default:
		return "", Invalid("type", "filter must be all, lost or found")
	}
}

func (f TypeFilter) matches(t ListingType) bool {
	return f == FilterAll || ListingType(f) == t
}

// Search filters a snapshot without reordering or mutating it.
// The query matches case-insensitively as a substring of title, description, category or location.
func Search(listings []*Listing, filter TypeFilter, query string) []*Listing {
	q := strings.ToLower(strings.TrimSpace(query))

	result := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if l == nil || !l.IsOpen() || !filter.matches(l.Type) {
			continue
		}
		if q != "" && !matchesQuery(l, q) {
			continue
		}
		result = append(result, l)
	}
	return result
}

func matchesQuery(l *Listing, q string) bool {
	for _, field := range []string{l.Title, l.Description, l.Category, l.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

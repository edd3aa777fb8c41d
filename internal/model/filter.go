package model

import (
	"net/url"
	"strconv"
	"strings"
)

// ListingFilter narrows the listings collection. Zero fields are not sent.
type ListingFilter struct {
	Location     string        `json:"location,omitempty"`
	MinPrice     float64       `json:"minPrice,omitempty"`
	MaxPrice     float64       `json:"maxPrice,omitempty"`
	PropertyType PropertyType  `json:"propertyType,omitempty"`
	Status       ListingStatus `json:"status,omitempty"`
	MinBedrooms  int           `json:"minBedrooms,omitempty"`
	MinBathrooms int           `json:"minBathrooms,omitempty"`
	MinArea      float64       `json:"minArea,omitempty"`
	Keywords     string        `json:"keywords,omitempty"`
}

// IsZero reports whether no criterion is set.
func (f ListingFilter) IsZero() bool {
	return f == ListingFilter{}
}

// Query encodes the set criteria as query parameters.
func (f ListingFilter) Query() url.Values {
	q := url.Values{}
	setString(q, "location", f.Location)
	setFloat(q, "minPrice", f.MinPrice)
	setFloat(q, "maxPrice", f.MaxPrice)
	setString(q, "propertyType", string(f.PropertyType))
	setString(q, "status", string(f.Status))
	setInt(q, "minBedrooms", f.MinBedrooms)
	setInt(q, "minBathrooms", f.MinBathrooms)
	setFloat(q, "minArea", f.MinArea)
	setString(q, "keywords", f.Keywords)
	return q
}

func setString(q url.Values, key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		q.Set(key, v)
	}
}

func setFloat(q url.Values, key string, v float64) {
	if v != 0 {
		q.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
	}
}

func setInt(q url.Values, key string, v int) {
	if v != 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

// ParseListingFilter is the inverse of Query. Unparsable numbers are ignored.
func ParseListingFilter(q url.Values) ListingFilter {
	f := ListingFilter{
		Location:     q.Get("location"),
		PropertyType: PropertyType(q.Get("propertyType")),
		Status:       ListingStatus(q.Get("status")),
		Keywords:     q.Get("keywords"),
	}
	f.MinPrice, _ = strconv.ParseFloat(q.Get("minPrice"), 64)
	f.MaxPrice, _ = strconv.ParseFloat(q.Get("maxPrice"), 64)
	f.MinArea, _ = strconv.ParseFloat(q.Get("minArea"), 64)
	f.MinBedrooms, _ = strconv.Atoi(q.Get("minBedrooms"))
	f.MinBathrooms, _ = strconv.Atoi(q.Get("minBathrooms"))
	return f
}

// Matches reports whether l satisfies every set criterion. Text criteria are
// case-insensitive substring matches.
func (f ListingFilter) Matches(l Listing) bool {
	if f.Location != "" {
		where := strings.Join([]string{l.Location.Address, l.Location.City, l.Location.State, l.Location.ZipCode}, " ")
		if !containsFold(where, f.Location) {
			return false
		}
	}
	if f.MinPrice != 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice != 0 && l.Price > f.MaxPrice {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if l.Features.Bedrooms < f.MinBedrooms || l.Features.Bathrooms < f.MinBathrooms {
		return false
	}
	if f.MinArea != 0 && l.Features.Area < f.MinArea {
		return false
	}
	if f.Keywords != "" && !containsFold(l.Title+" "+l.Description, f.Keywords) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

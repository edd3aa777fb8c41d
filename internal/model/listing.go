package model

import (
	"fmt"
	"time"

	"homefinder-client/pkg/apierror"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyApartment  PropertyType = "apartment"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
)

// ListingStatus says whether a listing is for sale or rent.
type ListingStatus string

const (
	StatusForSale ListingStatus = "for-sale"
	StatusForRent ListingStatus = "for-rent"
)

// Location is where a listing is.
type Location struct {
	Address   string   `json:"address"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zipCode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Features describes the property itself.
type Features struct {
	Bedrooms  int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms int     `json:"bathrooms" validate:"gte=0"`
	Area      float64 `json:"area" validate:"omitempty,gt=0"`
	YearBuilt *int    `json:"yearBuilt,omitempty" validate:"omitempty,gt=1800"`
	Parking   *int    `json:"parking,omitempty" validate:"omitempty,gte=0"`
}

// Listing is a property listed on the marketplace.
type Listing struct {
	ID           ID            `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	UserID       ID            `json:"user_id"`
	User         *User         `json:"user,omitempty"`
	Price        float64       `json:"price"`
	Location     Location      `json:"location"`
	PropertyType PropertyType  `json:"propertyType"`
	Status       ListingStatus `json:"status"`
	Features     Features      `json:"features"`
	Amenities    []string      `json:"amenities"`
	Images       []string      `json:"images"`
	IsFeatured   bool          `json:"is_featured"`
	CreatedAt    Timestamp     `json:"createdAt"`
	UpdatedAt    Timestamp     `json:"updatedAt"`
}

// Clone returns a deep copy of l.
func (l Listing) Clone() Listing {
	c := l
	c.User = l.User.Clone()
	c.Location.Latitude = cloneFloat(l.Location.Latitude)
	c.Location.Longitude = cloneFloat(l.Location.Longitude)
	c.Features.YearBuilt = cloneInt(l.Features.YearBuilt)
	c.Features.Parking = cloneInt(l.Features.Parking)
	if l.Amenities != nil {
		c.Amenities = append([]string(nil), l.Amenities...)
	}
	if l.Images != nil {
		c.Images = append([]string(nil), l.Images...)
	}
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

// ListingPage is one page of the listings collection.
type ListingPage struct {
	Total       int       `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
	PageSize    int       `json:"page_size"`
	Properties  []Listing `json:"properties"`
}

// ListingInput is the create/update payload for a listing.
type ListingInput struct {
	Title        string        `json:"title" validate:"required,min=3"`
	Description  string        `json:"description" validate:"required,min=10"`
	Price        float64       `json:"price" validate:"gt=0"`
	Location     Location      `json:"location"`
	PropertyType PropertyType  `json:"propertyType" validate:"required,oneof=house apartment land commercial"`
	Status       ListingStatus `json:"status" validate:"required,oneof=for-sale for-rent"`
	Features     Features      `json:"features"`
	Amenities    []string      `json:"amenities"`
	Images       []string      `json:"images" validate:"dive,url"`
}

// Validate checks the form before it is submitted.
func (in ListingInput) Validate() error {
	err := validateStruct(in)
	if in.Features.YearBuilt != nil && *in.Features.YearBuilt > time.Now().Year() {
		yearErr := apierror.FieldError{
			Field:   "yearBuilt",
			Message: fmt.Sprintf("yearBuilt must not be after %d", time.Now().Year()),
		}
		if apiErr, ok := apierror.As(err); ok {
			apiErr.Details = append(apiErr.Details, yearErr)
			return apiErr
		}
		return apierror.ValidationError(yearErr.Message, yearErr)
	}
	return err
}

// Listing returns the input as an unsaved listing.
func (in ListingInput) Listing() Listing {
	return Listing{
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Location:     in.Location,
		PropertyType: in.PropertyType,
		Status:       in.Status,
		Features:     in.Features,
		Amenities:    in.Amenities,
		Images:       in.Images,
	}.Clone()
}

// Favorite links a user to a listing they saved.
type Favorite struct {
	ID         ID        `json:"id"`
	UserID     ID        `json:"user_id"`
	PropertyID ID        `json:"property_id"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
}

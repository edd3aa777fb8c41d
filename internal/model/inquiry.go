package model

// InquiryStatus is the lifecycle state of an inquiry.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryResponded InquiryStatus = "responded"
	InquiryClosed    InquiryStatus = "closed"
)

// Valid reports whether s is a known status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryPending, InquiryResponded, InquiryClosed:
		return true
	}
	return false
}

// Inquiry is a prospective buyer's message about a listing.
type Inquiry struct {
	ID            ID            `json:"id"`
	PropertyID    ID            `json:"property_id"`
	UserID        ID            `json:"user_id,omitempty"`
	Message       string        `json:"message"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Property      *Listing      `json:"property,omitempty"`
	PropertyTitle string        `json:"property_title,omitempty"`
	CreatedAt     Timestamp     `json:"createdAt"`
	Status        InquiryStatus `json:"status"`
}

// Clone returns a deep copy of i.
func (i Inquiry) Clone() Inquiry {
	c := i
	if i.Property != nil {
		p := i.Property.Clone()
		c.Property = &p
	}
	return c
}

// InquiryInput is the payload for a new inquiry.
type InquiryInput struct {
	PropertyID ID     `json:"property_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Message    string `json:"message" validate:"required"`
}

// Validate checks the inquiry form.
func (in InquiryInput) Validate() error {
	return validateStruct(in)
}

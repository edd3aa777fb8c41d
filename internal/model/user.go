package model

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account on the marketplace.
type User struct {
	ID           ID        `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// IsAdmin reports whether the user may feature listings.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Clone returns a copy of u, or nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate checks the credentials before any request is sent.
func (c Credentials) Validate() error {
	return validateStruct(c)
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Validate checks the signup form.
func (r RegisterInput) Validate() error {
	return validateStruct(r)
}

// ProfileUpdate is a partial update of the signed-in user's profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Username     *string `json:"username,omitempty" validate:"omitempty,min=3"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	ProfileImage *string `json:"profile_image,omitempty" validate:"omitempty,url"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
}

// Validate checks the fields that are set.
func (p ProfileUpdate) Validate() error {
	return validateStruct(p)
}

// IsEmpty reports whether no field is set.
func (p ProfileUpdate) IsEmpty() bool {
	return p == ProfileUpdate{}
}

// Apply returns u with the set fields of p merged in.
func (p ProfileUpdate) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	return u
}

// PasswordResetRequest asks for a reset link to be emailed.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Validate checks the email address.
func (p PasswordResetRequest) Validate() error {
	return validateStruct(p)
}

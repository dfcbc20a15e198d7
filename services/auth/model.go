package auth

import (
	"time"
)

const (
	defaultAddressName = "Default Address"
	verificationTTL    = 5 * time.Minute
	maxVerifyAttempts  = 5
	codeSentMsg        = "Verification code sent"
	signedOutMsg       = "Signed out"
	invalidCodeMsg     = "Failed to verify code"
	notAuthenticated   = "User not authenticated"
	profileNotFoundMsg = "Profile not found"
)

// User is keyed by phone number: signing in again with the same phone finds the same user.
type User struct {
	UID       string    `json:"id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	UID          string    `json:"id"`
	UserUID      string    `json:"userId"`
	FullName     string    `json:"fullName,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"updatedAt"`
}

type ProfilePatch struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type Address struct {
	UID          string    `json:"id"`
	UserUID      string    `json:"userId"`
	Name         string    `json:"name"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"updatedAt"`
}

type AddressInput struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	IsDefault    bool   `json:"isDefault"`
}

// AddressBook holds all addresses of one user. At most one of them is the default.
type AddressBook struct {
	UserUID   string
	Addresses []Address
}

// PendingSignIn only keeps a hash of the code that was sent.
type PendingSignIn struct {
	Phone          string
	CodeHash       string
	CreatedAt      time.Time
	FailedAttempts int
}

type Session struct {
	Token     string
	UserUID   string
	CreatedAt time.Time
}

type Verification struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	IsNewUser bool   `json:"isNewUser"`
}

type SignInRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type VerifyRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

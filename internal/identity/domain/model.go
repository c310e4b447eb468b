package domain

// User is the identity record held by the identity provider.
// The provider's UID is the primary identifier
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Credentials is what a successful password sign-in yields.
type Credentials struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	IDToken      string `json:"-"`
	RefreshToken string `json:"-"`
}

// UserUpdate carries optional changes to an identity record.
type UserUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// MinPasswordLength is the provider's password policy.
const MinPasswordLength = 6

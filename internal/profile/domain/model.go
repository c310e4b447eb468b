package domain

import (
	"errors"
	"time"
)

// Date layouts used by profile documents.
const (
	BirthdayLayout   = "2006 Jan 02"
	FirstLoginLayout = "2006 Jan 02 15:04"
)

// GenderOptions indexes the gender picker.
var GenderOptions = []string{"Male", "Female"}

// UserProfile is the per-user document. ID is the document key, not a field.
type UserProfile struct {
	ID         string `firestore:"-" json:"id"`
	Gender     string `firestore:"userGender" json:"userGender"`
	Birthday   string `firestore:"userBD" json:"userBD"`
	FirstLogin string `firestore:"userFirstLogin" json:"userFirstLogin"`
	Country    string `firestore:"userCountry" json:"userCountry"`
}

// Gender returns the option at index i.
func Gender(i int) (string, error) {
	if i < 0 || i >= len(GenderOptions) {
		return "", errors.New("gender index out of range")
	}
	return GenderOptions[i], nil
}

func FormatBirthday(t time.Time) string   { return t.Format(BirthdayLayout) }
func FormatFirstLogin(t time.Time) string { return t.Format(FirstLoginLayout) }

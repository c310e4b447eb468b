package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrFetch           = errors.New("profile fetch failed")
	ErrWrite           = errors.New("profile write failed")
)

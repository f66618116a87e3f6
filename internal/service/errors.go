package service

import "errors"

// Service-level outcomes. Handlers translate these to HTTP status codes
// with errors.Is instead of matching on message text.
var (
	ErrUsernameTaken      = errors.New("username already exists")  // Registration: username conflict
	ErrEmailTaken         = errors.New("email already registered") // Registration: email conflict
	ErrInvalidCredentials = errors.New("invalid credentials")      // Login or password change failure
	ErrUserNotFound       = errors.New("user not found")           // Unknown user reference
	ErrCarNotFound        = errors.New("car not found")            // Unknown car reference
	ErrAlreadyFavorited   = errors.New("already in favorites")     // Duplicate favorite link
	ErrNotFavorited       = errors.New("not in favorites")         // Missing favorite link
)

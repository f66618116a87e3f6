package service

import (
	"carcatalog/internal/domain" // Importing domain models
	"errors"                     // Sentinel error matching

	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// AuthService implements registration, login and password changes on top of
// the user store. One instance is constructed per process and shared by the
// request handlers.
type AuthService struct {
	db   *gorm.DB // Database handle
	cost int      // Bcrypt cost factor
}

// NewAuthService builds an AuthService with the given bcrypt cost,
// clamped to the library default when out of range
func NewAuthService(db *gorm.DB, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost // Fall back to the default cost
	}
	return &AuthService{db: db, cost: cost}
}

// HashPassword hashes a plaintext password with the configured cost
func (s *AuthService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err // Return error if hashing fails
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
// The comparison is constant-time, provided by the bcrypt library.
func (s *AuthService) CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Register creates a new non-admin account. Username and email must both be
// unused; the two conflict outcomes are distinguished so the API can report
// which field clashed.
func (s *AuthService) Register(username, email, password string) (*domain.User, error) {
	// Pre-check both unique fields to pick the right conflict outcome
	taken, err := s.usernameExists(username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.emailExists(email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := s.HashPassword(password) // Hash the password
	if err != nil {
		return nil, err
	}
	user := domain.User{Username: username, Email: email, Password: hash, IsAdmin: false}
	if err := s.db.Create(&user).Error; err != nil {
		// The unique columns are the authoritative guard: a concurrent
		// registration can slip past the pre-checks, so a duplicate-key
		// error from the store is mapped back to the conflict outcome.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if taken, checkErr := s.usernameExists(username); checkErr == nil && taken {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// LoginByUsername authenticates an account resolved by username
func (s *AuthService) LoginByUsername(username, password string) (*domain.User, error) {
	return s.login("username = ?", username, password)
}

// LoginByEmail authenticates an account resolved by email
func (s *AuthService) LoginByEmail(email, password string) (*domain.User, error) {
	return s.login("email = ?", email, password)
}

// login resolves an account by the given column and verifies the password.
// Unknown identifier and wrong password collapse into one outcome so the
// response discloses nothing about which part failed.
func (s *AuthService) login(cond, value, password string) (*domain.User, error) {
	var user domain.User
	if err := s.db.Where(cond, value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// Compare provided password with stored hash
	if !s.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ChangePassword re-hashes and stores newPassword when oldPassword verifies
// against the current hash. A missing account and a wrong old password are
// the same failure; the stored hash is untouched on either.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user domain.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	// Verify the old password before touching anything
	if !s.CheckPassword(oldPassword, user.Password) {
		return ErrInvalidCredentials
	}
	hash, err := s.HashPassword(newPassword) // Hash the new password
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", hash).Error
}

// usernameExists reports whether a user with the given username exists
func (s *AuthService) usernameExists(username string) (bool, error) {
	var count int64
	err := s.db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// emailExists reports whether a user with the given email exists
func (s *AuthService) emailExists(email string) (bool, error) {
	var count int64
	err := s.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

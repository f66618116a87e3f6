package service

import (
	"carcatalog/internal/domain" // Importing domain models
	"errors"                     // Sentinel error matching

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Association handling on create
)

// FavoriteService maintains the many-to-many relation between users and cars
type FavoriteService struct {
	db *gorm.DB // Database handle
}

// NewFavoriteService builds a FavoriteService on the given database
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// Add links a car to a user's favorites. The pair must not already exist
// and both references must resolve.
func (s *FavoriteService) Add(userID, carID uint) error {
	exists, err := s.IsFavorite(userID, carID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFavorited
	}
	// Both referenced entities must exist before linking
	if err := s.db.First(&domain.User{}, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.db.First(&domain.Car{}, carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCarNotFound
		}
		return err
	}
	fav := domain.Favorite{UserID: userID, CarID: carID}
	if err := s.db.Omit(clause.Associations).Create(&fav).Error; err != nil {
		// The unique (user_id, car_id) index closes the race between the
		// existence pre-check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyFavorited
		}
		return err
	}
	return nil
}

// Remove deletes the favorite link for the pair. The delete-by-pair is a
// single statement, so a concurrent remove simply reports ErrNotFavorited.
func (s *FavoriteService) Remove(userID, carID uint) error {
	res := s.db.Where("user_id = ? AND car_id = ?", userID, carID).Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFavorited // No link existed for the pair
	}
	return nil
}

// IsFavorite reports whether the user has the car in their favorites
func (s *FavoriteService) IsFavorite(userID, carID uint) (bool, error) {
	var count int64
	err := s.db.Model(&domain.Favorite{}).
		Where("user_id = ? AND car_id = ?", userID, carID).
		Count(&count).Error
	return count > 0, err
}

// ListCars resolves the user's favorite links to their cars, in the order
// the links were created
func (s *FavoriteService) ListCars(userID uint) ([]domain.Car, error) {
	var favorites []domain.Favorite
	if err := s.db.Preload("Car").
		Where("user_id = ?", userID).
		Order("id").
		Find(&favorites).Error; err != nil {
		return nil, err
	}
	cars := make([]domain.Car, 0, len(favorites))
	for _, f := range favorites {
		cars = append(cars, f.Car)
	}
	return cars, nil
}

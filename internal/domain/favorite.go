package domain

// Favorite Model: links a user to a car they marked as favorite.
// The composite unique index is the authoritative guard against
// duplicate links under concurrent adds.
type Favorite struct {
	ID     uint `gorm:"primaryKey" json:"id"`                            // Primary key
	UserID uint `gorm:"not null;uniqueIndex:idx_user_car" json:"userId"` // Foreign key to User
	CarID  uint `gorm:"not null;uniqueIndex:idx_user_car" json:"carId"`  // Foreign key to Car
	User   User `gorm:"constraint:OnDelete:CASCADE" json:"-"`            // Owning user
	Car    Car  `gorm:"constraint:OnDelete:CASCADE" json:"-"`            // Referenced car
}

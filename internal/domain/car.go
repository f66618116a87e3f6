package domain

// Car Model
type Car struct {
	ID           uint    `gorm:"primaryKey" json:"id"`         // Primary key
	Brand        string  `gorm:"not null" json:"brand"`        // Manufacturer name
	Model        string  `gorm:"not null" json:"model"`        // Model name
	Year         int     `json:"year"`                         // Production year
	Price        float64 `json:"price"`                        // Listing price
	ImageURL     string  `gorm:"size:1000" json:"imageUrl"`    // Optional image link
	Description  string  `gorm:"size:2000" json:"description"` // Free-form description
	Color        string  `json:"color"`                        // Exterior color
	Mileage      *int    `json:"mileage"`                      // Mileage in km, nullable
	FuelType     *string `json:"fuelType"`                     // petrol, diesel, electric, hybrid; nullable
	Transmission string  `json:"transmission"`                 // automatic or manual
}

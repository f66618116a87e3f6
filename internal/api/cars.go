package api

import (
	"carcatalog/internal/domain"  // Importing domain models
	"carcatalog/internal/service" // Business services
	"carcatalog/internal/utils"   // Cache helpers
	"context"                     // Context for Redis operations
	"errors"                      // Sentinel error matching
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion
	"time"                        // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CarRequest is the payload for creating or updating a car
type CarRequest struct {
	Brand        string  `json:"brand" binding:"required"` // Brand must be provided
	Model        string  `json:"model" binding:"required"` // Model must be provided
	Year         int     `json:"year"`                     // Production year
	Price        float64 `json:"price"`                    // Listing price
	ImageURL     string  `json:"imageUrl"`                 // Optional image link
	Description  string  `json:"description"`              // Free-form description
	Color        string  `json:"color"`                    // Exterior color
	Mileage      *int    `json:"mileage"`                  // Mileage in km, nullable
	FuelType     *string `json:"fuelType"`                 // Fuel type, nullable
	Transmission string  `json:"transmission"`             // Transmission type
}

// toCar maps the request DTO onto a domain car
func (r *CarRequest) toCar() *domain.Car {
	return &domain.Car{
		Brand:        r.Brand,        // Brand
		Model:        r.Model,        // Model
		Year:         r.Year,         // Year
		Price:        r.Price,        // Price
		ImageURL:     r.ImageURL,     // Image link
		Description:  r.Description,  // Description
		Color:        r.Color,        // Color
		Mileage:      r.Mileage,      // Mileage
		FuelType:     r.FuelType,     // Fuel type
		Transmission: r.Transmission, // Transmission
	}
}

// ListCarsHandler returns the full catalog, served from cache when possible
func ListCarsHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var cars []domain.Car
		// Try to get the listing from cache
		found, err := utils.GetCache(ctx, rdb, utils.CarsCacheKey, &cars)
		if err == nil && found {
			// Return cached listing
			c.JSON(http.StatusOK, gin.H{"cars": cars, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		cars, err = catalog.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cars"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.CarsCacheKey, cars, 60*time.Second) // Cache the listing for 60 seconds
		c.JSON(http.StatusOK, gin.H{"cars": cars, "cached": false})            // Return the listing
	}
}

// GetCarHandler returns one car by id
func GetCarHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32) // Parse car id from path
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car id"})
			return
		}
		car, err := catalog.Get(uint(id)) // Fetch the car
		if err != nil {
			if errors.Is(err, service.ErrCarNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch car"})
			return
		}
		c.JSON(http.StatusOK, car) // Return the car
	}
}

// CreateCarHandler adds a new car to the catalog (admin only)
func CreateCarHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CarRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		car := req.toCar() // Map DTO to domain model
		if err := catalog.Create(car); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create car"})
			return
		}
		// Log the new listing
		logrus.WithFields(logrus.Fields{
			"car_id": car.ID,    // New car ID
			"brand":  car.Brand, // Brand
			"model":  car.Model, // Model
		}).Info("Car created")
		invalidateCarCache(rdb)                       // Invalidate catalog caches
		c.JSON(http.StatusCreated, gin.H{"car": car}) // Return the created car
	}
}

// UpdateCarHandler replaces a car's fields (admin only)
func UpdateCarHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32) // Parse car id from path
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car id"})
			return
		}
		var req CarRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		car, err := catalog.Update(uint(id), req.toCar()) // Apply the update
		if err != nil {
			if errors.Is(err, service.ErrCarNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update car"})
			return
		}
		// Log the update
		logrus.WithFields(logrus.Fields{
			"car_id": car.ID, // Car ID
		}).Info("Car updated")
		invalidateCarCache(rdb)                  // Invalidate catalog caches
		c.JSON(http.StatusOK, gin.H{"car": car}) // Return the updated car
	}
}

// DeleteCarHandler removes a car from the catalog (admin only)
func DeleteCarHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32) // Parse car id from path
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car id"})
			return
		}
		if err := catalog.Delete(uint(id)); err != nil {
			if errors.Is(err, service.ErrCarNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete car"})
			return
		}
		// Log the removal
		logrus.WithFields(logrus.Fields{
			"car_id": id, // Car ID
		}).Info("Car deleted")
		invalidateCarCache(rdb)        // Invalidate catalog caches
		c.Status(http.StatusNoContent) // Return no content
	}
}

// SearchCarsHandler filters and sorts the catalog by the query parameters
func SearchCarsHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		criteria := service.Criteria{
			Search:    c.Query("search"),    // Substring filter
			Brand:     c.Query("brand"),     // Brand filter
			FuelType:  c.Query("fuelType"),  // Fuel type filter
			SortBy:    c.Query("sortBy"),    // Sort key
			SortOrder: c.Query("sortOrder"), // Sort direction
		}
		// Parse the numeric bounds; a malformed value is a validation error
		if v := c.Query("minPrice"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minPrice"})
				return
			}
			criteria.MinPrice = &f
		}
		if v := c.Query("maxPrice"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxPrice"})
				return
			}
			criteria.MaxPrice = &f
		}
		if v := c.Query("minYear"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minYear"})
				return
			}
			criteria.MinYear = &n
		}
		if v := c.Query("maxYear"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxYear"})
				return
			}
			criteria.MaxYear = &n
		}
		cars, err := catalog.Search(criteria) // Run the search
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search cars"})
			return
		}
		// Return the matches and their count
		c.JSON(http.StatusOK, gin.H{"cars": cars, "count": len(cars)})
	}
}

// BrandsHandler returns the distinct brand list, served from cache when possible
func BrandsHandler(catalog *service.CatalogService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var brands []string
		// Try to get the brand list from cache
		found, err := utils.GetCache(ctx, rdb, utils.BrandsCacheKey, &brands)
		if err == nil && found {
			// Return cached brand list
			c.JSON(http.StatusOK, gin.H{"brands": brands, "cached": true})
			return
		}
		// If not in cache, derive from the catalog
		brands, err = catalog.Brands()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brands"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.BrandsCacheKey, brands, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"brands": brands, "cached": false})            // Return the brand list
	}
}

// invalidateCarCache drops the cached catalog views after any car write
func invalidateCarCache(rdb *redis.Client) {
	_ = utils.DeleteCache(context.Background(), rdb, utils.CarsCacheKey, utils.BrandsCacheKey)
}

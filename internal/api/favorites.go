package api

import (
	"carcatalog/internal/service" // Business services
	"errors"                      // Sentinel error matching
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// FavoriteRequest is the payload for adding a favorite
type FavoriteRequest struct {
	UserID uint `json:"userId" binding:"required"` // Owning user
	CarID  uint `json:"carId" binding:"required"`  // Car to mark
}

// ListUserFavoritesHandler returns the cars a user has favorited, in the
// order they were added
func ListUserFavoritesHandler(favorites *service.FavoriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("userId"), 10, 32) // Parse user id from path
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		cars, err := favorites.ListCars(uint(userID)) // Resolve links to cars
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cars": cars}) // Return the cars
	}
}

// AddFavoriteHandler links a car to a user's favorites
func AddFavoriteHandler(favorites *service.FavoriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FavoriteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId and carId are required"})
			return
		}
		// Create the link; duplicates and dangling references are client errors
		if err := favorites.Add(req.UserID, req.CarID); err != nil {
			switch {
			case errors.Is(err, service.ErrAlreadyFavorited):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Already in favorites", "success": false})
			case errors.Is(err, service.ErrUserNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "User not found", "success": false})
			case errors.Is(err, service.ErrCarNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Car not found", "success": false})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
			}
			return
		}
		// Log the new link
		logrus.WithFields(logrus.Fields{
			"user_id": req.UserID, // Owning user
			"car_id":  req.CarID,  // Favorited car
		}).Info("Favorite added")
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Added to favorites", "success": true})
	}
}

// RemoveFavoriteHandler deletes the favorite link identified by the
// userId and carId query parameters
func RemoveFavoriteHandler(favorites *service.FavoriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, carID, ok := pairQuery(c) // Parse the pair from the query
		if !ok {
			return // pairQuery already wrote the response
		}
		if err := favorites.Remove(userID, carID); err != nil {
			if errors.Is(err, service.ErrNotFavorited) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Not in favorites", "success": false})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
			return
		}
		// Log the removal
		logrus.WithFields(logrus.Fields{
			"user_id": userID, // Owning user
			"car_id":  carID,  // Unfavorited car
		}).Info("Favorite removed")
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites", "success": true})
	}
}

// CheckFavoriteHandler reports whether the pair is linked
func CheckFavoriteHandler(favorites *service.FavoriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, carID, ok := pairQuery(c) // Parse the pair from the query
		if !ok {
			return // pairQuery already wrote the response
		}
		isFavorite, err := favorites.IsFavorite(userID, carID) // Existence check
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check favorite"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"isFavorite": isFavorite}) // Return the flag
	}
}

// pairQuery parses the userId and carId query parameters, writing a bad
// request response when either is missing or malformed
func pairQuery(c *gin.Context) (uint, uint, bool) {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and carId are required"})
		return 0, 0, false
	}
	carID, err := strconv.ParseUint(c.Query("carId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and carId are required"})
		return 0, 0, false
	}
	return uint(userID), uint(carID), true
}

package service

import (
	"carcatalog/internal/domain" // Importing domain models
	"errors"                     // Sentinel error matching
	"sort"                       // Stable sorting
	"strings"                    // Case folding and substring search

	"gorm.io/gorm" // GORM ORM library
)

// Criteria is the set of optional filters and ordering options for a catalog
// search. Zero-valued fields are ignored; supplied filters are combined with
// logical AND.
type Criteria struct {
	Search    string   // Case-insensitive substring on brand or model
	Brand     string   // Case-insensitive exact brand match
	FuelType  string   // Case-insensitive exact fuel type match
	MinPrice  *float64 // Inclusive lower price bound
	MaxPrice  *float64 // Inclusive upper price bound
	MinYear   *int     // Inclusive lower year bound
	MaxYear   *int     // Inclusive upper year bound
	SortBy    string   // price, year or brand; anything else sorts by id
	SortOrder string   // "desc" reverses, anything else is ascending
}

// CatalogService implements car CRUD and the in-memory search engine
type CatalogService struct {
	db *gorm.DB // Database handle
}

// NewCatalogService builds a CatalogService on the given database
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// List returns the full catalog
func (s *CatalogService) List() ([]domain.Car, error) {
	var cars []domain.Car
	if err := s.db.Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// Get returns one car by id
func (s *CatalogService) Get(id uint) (*domain.Car, error) {
	var car domain.Car
	if err := s.db.First(&car, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return &car, nil
}

// Create persists a new car; the id is assigned by the store
func (s *CatalogService) Create(car *domain.Car) error {
	return s.db.Create(car).Error
}

// Update replaces every mutable field of the stored car with the
// supplied details
func (s *CatalogService) Update(id uint, details *domain.Car) (*domain.Car, error) {
	car, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	car.Brand = details.Brand
	car.Model = details.Model
	car.Year = details.Year
	car.Price = details.Price
	car.ImageURL = details.ImageURL
	car.Description = details.Description
	car.Color = details.Color
	car.Mileage = details.Mileage
	car.FuelType = details.FuelType
	car.Transmission = details.Transmission
	if err := s.db.Save(car).Error; err != nil {
		return nil, err
	}
	return car, nil
}

// Delete removes a car by id
func (s *CatalogService) Delete(id uint) error {
	res := s.db.Delete(&domain.Car{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCarNotFound // Nothing deleted means the id was unknown
	}
	return nil
}

// Search filters a full snapshot of the catalog in memory and, when SortBy
// is set, sorts the result. There is no incremental index; every call loads
// the whole catalog.
func (s *CatalogService) Search(c Criteria) ([]domain.Car, error) {
	cars, err := s.List()
	if err != nil {
		return nil, err
	}
	out := filterCars(cars, c)
	if c.SortBy != "" {
		sortCars(out, c.SortBy, c.SortOrder)
	}
	return out, nil
}

// Brands returns the distinct brand values across the catalog,
// case-sensitive, sorted lexicographically ascending
func (s *CatalogService) Brands() ([]string, error) {
	cars, err := s.List()
	if err != nil {
		return nil, err
	}
	return distinctBrands(cars), nil
}

// filterCars applies every supplied criterion; a car must pass all of them
func filterCars(cars []domain.Car, c Criteria) []domain.Car {
	needle := strings.ToLower(c.Search)
	out := make([]domain.Car, 0, len(cars))
	for _, car := range cars {
		// Substring match against brand OR model
		if needle != "" &&
			!strings.Contains(strings.ToLower(car.Brand), needle) &&
			!strings.Contains(strings.ToLower(car.Model), needle) {
			continue
		}
		if c.Brand != "" && !strings.EqualFold(car.Brand, c.Brand) {
			continue
		}
		// A car without a fuel type never matches a non-empty filter
		if c.FuelType != "" && (car.FuelType == nil || !strings.EqualFold(*car.FuelType, c.FuelType)) {
			continue
		}
		if c.MinPrice != nil && car.Price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && car.Price > *c.MaxPrice {
			continue
		}
		if c.MinYear != nil && car.Year < *c.MinYear {
			continue
		}
		if c.MaxYear != nil && car.Year > *c.MaxYear {
			continue
		}
		out = append(out, car)
	}
	return out
}

// sortCars orders cars in place. The sort is stable, so entries sharing a
// key keep their snapshot (primary key) order.
func sortCars(cars []domain.Car, sortBy, sortOrder string) {
	var less func(a, b domain.Car) bool
	switch strings.ToLower(sortBy) {
	case "price":
		less = func(a, b domain.Car) bool { return a.Price < b.Price }
	case "year":
		less = func(a, b domain.Car) bool { return a.Year < b.Year }
	case "brand":
		less = func(a, b domain.Car) bool { return a.Brand < b.Brand }
	default:
		less = func(a, b domain.Car) bool { return a.ID < b.ID }
	}
	desc := strings.EqualFold(sortOrder, "desc")
	sort.SliceStable(cars, func(i, j int) bool {
		if desc {
			return less(cars[j], cars[i]) // Reversed comparator
		}
		return less(cars[i], cars[j])
	})
}

// distinctBrands collects distinct brand values, case-sensitive
func distinctBrands(cars []domain.Car) []string {
	seen := make(map[string]struct{}, len(cars))
	brands := make([]string, 0, len(cars))
	for _, car := range cars {
		if _, ok := seen[car.Brand]; ok {
			continue
		}
		seen[car.Brand] = struct{}{}
		brands = append(brands, car.Brand)
	}
	sort.Strings(brands)
	return brands
}

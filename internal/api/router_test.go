package api

import (
	"bytes"
	"carcatalog/internal/domain"
	"carcatalog/internal/middleware"
	"carcatalog/internal/service"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

// newTestEnv wires the full router against a throwaway sqlite database.
// The redis client points at a closed port, so every cache call fails and
// the handlers fall through to the database, which is the behavior under a
// redis outage as well.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Car{}, &domain.Favorite{}))

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	auth := service.NewAuthService(db, bcrypt.MinCost)
	catalog := service.NewCatalogService(db)
	favorites := service.NewFavoriteService(db)

	r := gin.New()
	r.POST("/auth/register", RegisterHandler(auth))
	r.POST("/auth/login", LoginHandler(auth, testJWTSecret))
	r.POST("/auth/:id/change-password", ChangePasswordHandler(auth))
	r.GET("/cars", ListCarsHandler(catalog, rdb))
	r.GET("/cars/search", SearchCarsHandler(catalog))
	r.GET("/cars/brands", BrandsHandler(catalog, rdb))
	r.GET("/cars/:id", GetCarHandler(catalog))
	adminCars := r.Group("/cars")
	adminCars.Use(middleware.JWTAuthMiddleware(testJWTSecret), middleware.AdminOnlyMiddleware(db))
	adminCars.POST("", CreateCarHandler(catalog, rdb))
	adminCars.PUT("/:id", UpdateCarHandler(catalog, rdb))
	adminCars.DELETE("/:id", DeleteCarHandler(catalog, rdb))
	favGroup := r.Group("/favorites")
	favGroup.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	favGroup.GET("/user/:userId", ListUserFavoritesHandler(favorites))
	favGroup.POST("", AddFavoriteHandler(favorites))
	favGroup.DELETE("", RemoveFavoriteHandler(favorites))
	favGroup.GET("/check", CheckFavoriteHandler(favorites))

	return &testEnv{router: r, db: db}
}

// do performs one request against the router and returns the recorder
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON response body into a generic map
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates an account, optionally promotes it to admin,
// and returns its id and a fresh token
func (e *testEnv) registerAndLogin(t *testing.T, username, email string, admin bool) (uint, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	if admin {
		require.NoError(t, e.db.Model(&domain.User{}).Where("username = ?", username).Update("is_admin", true).Error)
	}
	w = e.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return uint(resp["id"].(float64)), token
}

// itoa formats an id for use in a request path
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// seedCar stores a car directly, bypassing the admin endpoints
func (e *testEnv) seedCar(t *testing.T, car domain.Car) domain.Car {
	t.Helper()
	require.NoError(t, e.db.Create(&car).Error)
	return car
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate username and duplicate email report which field clashed
	w = env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "bob", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["error"])

	// Malformed email fails DTO validation before reaching the service
	w = env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "carol", "email": "not-an-email", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad credentials are 401 with no hint about which part failed
	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, false, resp["isAdmin"])

	// Login without an identifier is malformed
	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.registerAndLogin(t, "alice", "alice@example.com", false)

	path := "/auth/" + itoa(id) + "/change-password"

	w := env.do(t, http.MethodPost, path, "", gin.H{"oldPassword": "wrong", "newPassword": "newpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, path, "", gin.H{"oldPassword": "secret123", "newPassword": "newpass"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Only the new password logs in now
	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "newpass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCarWriteEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerAndLogin(t, "alice", "alice@example.com", false)
	_, adminToken := env.registerAndLogin(t, "root", "root@example.com", true)

	body := gin.H{"brand": "BMW", "model": "320i", "year": 2018, "price": 25000}

	// No token, then a non-admin token
	w := env.do(t, http.MethodPost, "/cars", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/cars", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin creates, updates and deletes
	w = env.do(t, http.MethodPost, "/cars", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	car := decode(t, w)["car"].(map[string]any)
	carID := itoa(uint(car["id"].(float64)))

	w = env.do(t, http.MethodGet, "/cars/"+carID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/cars/"+carID, adminToken, gin.H{
		"brand": "BMW", "model": "330e", "year": 2021, "price": 41000, "fuelType": "hybrid",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)["car"].(map[string]any)
	assert.Equal(t, "330e", updated["model"])

	w = env.do(t, http.MethodDelete, "/cars/"+carID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The car is gone on both read and delete paths
	w = env.do(t, http.MethodGet, "/cars/"+carID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/cars/"+carID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A missing required field is rejected before the service runs
	w = env.do(t, http.MethodPost, "/cars", adminToken, gin.H{"model": "no brand"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCarListSearchAndBrands(t *testing.T) {
	env := newTestEnv(t)
	env.seedCar(t, domain.Car{Brand: "BMW", Model: "320i", Year: 2018, Price: 25000})
	env.seedCar(t, domain.Car{Brand: "Audi", Model: "A4", Year: 2020, Price: 32000})
	env.seedCar(t, domain.Car{Brand: "BMW", Model: "X5", Year: 2021, Price: 48000})

	w := env.do(t, http.MethodGet, "/cars", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Len(t, resp["cars"], 3)
	assert.Equal(t, false, resp["cached"])

	// Brand filter with descending price sort
	w = env.do(t, http.MethodGet, "/cars/search?brand=bmw&sortBy=price&sortOrder=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	cars := resp["cars"].([]any)
	require.Len(t, cars, 2)
	assert.Equal(t, "X5", cars[0].(map[string]any)["model"])
	assert.Equal(t, "320i", cars[1].(map[string]any)["model"])
	assert.Equal(t, float64(2), resp["count"])

	// Malformed numeric bound
	w = env.do(t, http.MethodGet, "/cars/search?minPrice=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/cars/brands", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	brands := decode(t, w)["brands"].([]any)
	assert.Equal(t, []any{"Audi", "BMW"}, brands)
}

func TestFavoritesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.registerAndLogin(t, "alice", "alice@example.com", false)
	car := env.seedCar(t, domain.Car{Brand: "BMW", Model: "320i", Year: 2018, Price: 25000})

	uid := itoa(userID)
	cid := itoa(car.ID)
	pair := "userId=" + uid + "&carId=" + cid

	// The whole group requires a token
	w := env.do(t, http.MethodPost, "/favorites", "", gin.H{"userId": userID, "carId": car.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/favorites", token, gin.H{"userId": userID, "carId": car.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	// Second add is a conflict, not a success
	w = env.do(t, http.MethodPost, "/favorites", token, gin.H{"userId": userID, "carId": car.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already in favorites", decode(t, w)["error"])

	// Dangling car reference
	w = env.do(t, http.MethodPost, "/favorites", token, gin.H{"userId": userID, "carId": 999})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Car not found", decode(t, w)["error"])

	w = env.do(t, http.MethodGet, "/favorites/check?"+pair, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isFavorite"])

	w = env.do(t, http.MethodGet, "/favorites/user/"+uid, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cars := decode(t, w)["cars"].([]any)
	require.Len(t, cars, 1)
	assert.Equal(t, "320i", cars[0].(map[string]any)["model"])

	w = env.do(t, http.MethodDelete, "/favorites?"+pair, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/favorites?"+pair, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not in favorites", decode(t, w)["error"])

	w = env.do(t, http.MethodGet, "/favorites/check?"+pair, token, nil)
	assert.Equal(t, false, decode(t, w)["isFavorite"])
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bizbridge-ng/bizbridge-api/internal/middleware"
	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/catalog"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/featured"
	"github.com/bizbridge-ng/bizbridge-api/internal/storage"
	"github.com/bizbridge-ng/bizbridge-api/internal/utils"
)

const testSecret = "test-secret"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CustomerProfile{},
		&models.ArtisanProfile{},
		&models.AdminProfile{},
		&models.Service{},
		&models.Review{},
		&models.Booking{},
		&models.SavedArtisan{},
	))

	zlog := zap.NewNop().Sugar()
	uploads := storage.New(t.TempDir(), "")
	catalogSvc := catalog.NewService(db)
	featuredSvc := featured.NewService(db)

	authH := &AuthHandler{DB: db, JWTSecret: testSecret, Expires: 60, Uploads: uploads, Log: zlog}
	serviceH := NewServiceHandler(db, catalogSvc, featuredSvc, uploads, nil, zlog)
	userH := NewUserHandler(db, featuredSvc, uploads, nil, zlog)
	adminH := NewAdminHandler(db, featuredSvc, nil, zlog)
	bookingH := NewBookingHandler(db, zlog)
	categoryH := NewCategoryHandler(db)

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/register/customer", authH.RegisterCustomer)
	api.Post("/auth/register/artisan", authH.RegisterArtisan)
	api.Post("/auth/login", authH.Login)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/services", serviceH.ListPublic)
	api.Get("/services/search", serviceH.Search)
	api.Get("/services/featured", serviceH.FeaturedList)
	api.Get("/services/:serviceId<int>", serviceH.GetDetail)
	api.Get("/services/:serviceId<int>/reviews", serviceH.GetReviews)
	api.Get("/users/featured", userH.FeaturedArtisans)
	api.Get("/users/:userId", userH.GetProfile)

	protected := api.Group("/",
		middleware.JWTFromHeader(testSecret),
		middleware.AttachJWTLocals(),
	)
	protected.Get("/auth/me", authH.Me)
	protected.Get("/users/me/profile", userH.GetMyProfile)
	protected.Put("/users/me/profile", userH.UpdateMyProfile)
	protected.Get("/users/me/saved-artisans", middleware.RequireRoles("customer"), userH.ListSavedArtisans)
	protected.Post("/users/me/saved-artisans/:artisanId", middleware.RequireRoles("customer"), userH.SaveArtisan)
	protected.Delete("/users/me/saved-artisans/:artisanId", middleware.RequireRoles("customer"), userH.UnsaveArtisan)
	protected.Post("/users/:userId/profile-image", userH.UploadProfileImage)
	protected.Post("/users/:userId/cac-document", userH.UploadCACDocument)
	protected.Get("/services/my", middleware.RequireRoles("artisan"), serviceH.ListMine)
	protected.Post("/services", middleware.RequireRoles("artisan"), serviceH.Create)
	protected.Put("/services/:serviceId<int>", middleware.RequireRoles("artisan"), serviceH.Update)
	protected.Delete("/services/:serviceId<int>", middleware.RequireRoles("artisan"), serviceH.Delete)
	protected.Patch("/services/:serviceId<int>/status", middleware.RequireRoles("artisan"), serviceH.ToggleStatus)
	protected.Post("/services/:serviceId<int>/reviews", middleware.RequireRoles("customer"), serviceH.CreateReview)
	protected.Post("/bookings", middleware.RequireRoles("customer"), bookingH.Create)
	protected.Get("/bookings/my", middleware.RequireRoles("customer", "artisan"), bookingH.ListMine)
	protected.Patch("/bookings/:id/status", middleware.RequireRoles("artisan"), bookingH.UpdateStatus)

	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/stats", adminH.Stats)
	admin.Get("/artisans", adminH.ListArtisans)
	admin.Patch("/artisans/:id/feature", adminH.FeatureArtisan)
	admin.Patch("/featured-artisans/reorder", adminH.ReorderFeatured)
	admin.Patch("/artisans/:id/verify", adminH.VerifyArtisan)
	admin.Patch("/users/:id/status", adminH.SetUserStatus)

	return &testEnv{app: app, db: db}
}

// seedUser inserts a user plus its role profile directly and returns the id
// and a signed token.
func (e *testEnv) seedUser(t *testing.T, role models.Role, name string) (uuid.UUID, string) {
	t.Helper()
	hashed, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	user := models.User{
		Email:    name + "@example.com",
		Username: name,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&user).Error)

	switch role {
	case models.RoleCustomer:
		require.NoError(t, e.db.Create(&models.CustomerProfile{UserID: user.ID, FullName: name}).Error)
	case models.RoleArtisan:
		require.NoError(t, e.db.Create(&models.ArtisanProfile{
			UserID:       user.ID,
			ContactName:  name,
			BusinessName: name + " Works",
			PhoneNumber:  "08012345678",
		}).Error)
	case models.RoleAdmin:
		require.NoError(t, e.db.Create(&models.AdminProfile{UserID: user.ID, AdminLevel: "super"}).Error)
	}

	token, err := utils.SignJWT(testSecret, user.ID.String(), string(role), user.Email, 60)
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) seedService(t *testing.T, artisan uuid.UUID, title string, active bool) uint {
	t.Helper()
	svc := models.Service{
		ArtisanID:   artisan,
		Title:       title,
		Description: "about " + title,
		Category:    models.CategoryTailoring,
		PriceType:   models.PriceFixed,
		PriceAmount: 250000,
		IsActive:    active,
	}
	require.NoError(t, e.db.Create(&svc).Error)
	return svc.ID
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func (e *testEnv) multipart(t *testing.T, method, path, token string, fields map[string]string, files map[string][]byte) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

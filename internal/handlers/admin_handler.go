package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/cache"
	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/catalog"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/featured"
)

type AdminHandler struct {
	DB       *gorm.DB
	Featured *featured.Service
	Cache    *cache.Cache
	Log      *zap.SugaredLogger
}

func NewAdminHandler(db *gorm.DB, feat *featured.Service, ch *cache.Cache, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{DB: db, Featured: feat, Cache: ch, Log: log}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	counts := map[string]int64{}

	count := func(key string, q *gorm.DB) error {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		counts[key] = n
		return nil
	}

	steps := []struct {
		key string
		q   *gorm.DB
	}{
		{"total_users", h.DB.Model(&models.User{})},
		{"customers", h.DB.Model(&models.User{}).Where("role = ?", models.RoleCustomer)},
		{"artisans", h.DB.Model(&models.User{}).Where("role = ?", models.RoleArtisan)},
		{"total_services", h.DB.Model(&models.Service{})},
		{"active_services", h.DB.Model(&models.Service{}).Where("is_active = ?", true)},
		{"featured_artisans", h.DB.Model(&models.ArtisanProfile{}).Where("is_featured = ?", true)},
		{"total_bookings", h.DB.Model(&models.Booking{})},
		{"completed_bookings", h.DB.Model(&models.Booking{}).Where("status = ?", models.BookingCompleted)},
	}
	for _, s := range steps {
		if err := count(s.key, s.q); err != nil {
			h.Log.Errorw("admin stats failed", "metric", s.key, "error", err)
			return fail(c, fiber.StatusInternalServerError, "Could not compute stats")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    counts,
	})
}

// ListArtisans handles GET /api/admin/artisans: paginated, includes
// inactive accounts, optional name search.
func (h *AdminHandler) ListArtisans(c *fiber.Ctx) error {
	page, limit := catalog.Normalize(c.QueryInt("page", 1), c.QueryInt("limit", catalog.DefaultLimit))
	search := strings.TrimSpace(c.Query("search"))

	base := func() *gorm.DB {
		q := h.DB.
			Table("artisan_profiles").
			Joins("JOIN users ON users.id = artisan_profiles.user_id").
			Where("users.role = ?", models.RoleArtisan)
		if search != "" {
			term := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(artisan_profiles.business_name) LIKE ? OR LOWER(artisan_profiles.contact_name) LIKE ?", term, term)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		h.Log.Errorw("admin artisan count failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch artisans")
	}

	type row struct {
		UserID        uuid.UUID  `json:"user_id"`
		Username      string     `json:"username"`
		Email         string     `json:"email"`
		IsActive      bool       `json:"is_active"`
		IsVerified    bool       `json:"is_verified"`
		BusinessName  string     `json:"business_name"`
		ContactName   string     `json:"contact_name"`
		PhoneNumber   string     `json:"phone_number"`
		City          string     `json:"city"`
		IsFeatured    bool       `json:"is_featured"`
		FeaturedOrder int        `json:"featured_order"`
		FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	}
	var rows []row
	err := base().
		Select(`users.id as user_id, users.username, users.email,
			users.is_active, users.is_verified,
			artisan_profiles.business_name, artisan_profiles.contact_name,
			artisan_profiles.phone_number, artisan_profiles.city,
			artisan_profiles.is_featured, artisan_profiles.featured_order,
			artisan_profiles.featured_until`).
		Order("artisan_profiles.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		h.Log.Errorw("admin artisan list failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch artisans")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rows,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": catalog.TotalPages(total, limit),
		},
	})
}

type FeatureReq struct {
	Featured bool `json:"featured"`
	Duration *int `json:"duration"` // days
	Order    *int `json:"order"`
}

// FeatureArtisan handles PATCH /api/admin/artisans/:id/feature.
func (h *AdminHandler) FeatureArtisan(c *fiber.Ctx) error {
	artisanID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid artisan ID")
	}

	var req FeatureReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	profile, err := h.Featured.SetFeatured(artisanID, req.Featured, req.Duration, req.Order)
	if errors.Is(err, featured.ErrArtisanNotFound) {
		return fail(c, fiber.StatusNotFound, "Artisan not found")
	}
	if err != nil {
		h.Log.Errorw("feature artisan failed", "artisan", artisanID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update artisan")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Featured status updated",
		"data": fiber.Map{
			"user_id":        profile.UserID,
			"is_featured":    profile.IsFeatured,
			"featured_until": profile.FeaturedUntil,
			"featured_order": profile.FeaturedOrder,
		},
	})
}

type ReorderReq struct {
	Orders []featured.OrderUpdate `json:"orders"`
}

// ReorderFeatured handles PATCH /api/admin/featured-artisans/reorder. The
// batch is applied atomically.
func (h *AdminHandler) ReorderFeatured(c *fiber.Ctx) error {
	var req ReorderReq
	if err := c.BodyParser(&req); err != nil || len(req.Orders) == 0 {
		return fail(c, fiber.StatusBadRequest, "orders array is required")
	}

	err := h.Featured.Reorder(req.Orders)
	if errors.Is(err, featured.ErrArtisanNotFound) {
		return fail(c, fiber.StatusNotFound, "One of the artisans was not found; nothing was reordered")
	}
	if err != nil {
		h.Log.Errorw("reorder failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not reorder artisans")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Featured order updated",
	})
}

// VerifyArtisan handles PATCH /api/admin/artisans/:id/verify.
func (h *AdminHandler) VerifyArtisan(c *fiber.Ctx) error {
	artisanID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid artisan ID")
	}

	var req struct {
		Verified *bool `json:"verified"`
	}
	if err := c.BodyParser(&req); err != nil || req.Verified == nil {
		return fail(c, fiber.StatusBadRequest, "verified is required")
	}

	res := h.DB.Model(&models.User{}).
		Where("id = ? AND role = ?", artisanID, models.RoleArtisan).
		Update("is_verified", *req.Verified)
	if res.Error != nil {
		h.Log.Errorw("verify artisan failed", "artisan", artisanID, "error", res.Error)
		return fail(c, fiber.StatusInternalServerError, "Could not update artisan")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "Artisan not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Verification updated",
	})
}

// SetUserStatus handles PATCH /api/admin/users/:id/status. This is the
// soft-delete path; there is no hard delete of accounts.
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return fail(c, fiber.StatusBadRequest, "active is required")
	}

	res := h.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", *req.Active)
	if res.Error != nil {
		h.Log.Errorw("user status update failed", "user", userID, "error", res.Error)
		return fail(c, fiber.StatusInternalServerError, "Could not update user")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User status updated",
	})
}

func (h *AdminHandler) invalidateFeatured(c *fiber.Ctx) {
	h.Cache.Delete(c.Context(), cacheKeyFeaturedServices, cacheKeyFeaturedArtisans)
}

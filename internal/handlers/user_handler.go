package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/cache"
	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/catalog"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/featured"
	"github.com/bizbridge-ng/bizbridge-api/internal/storage"
)

type UserHandler struct {
	DB       *gorm.DB
	Featured *featured.Service
	Uploads  *storage.Store
	Cache    *cache.Cache
	Log      *zap.SugaredLogger
}

func NewUserHandler(db *gorm.DB, feat *featured.Service, uploads *storage.Store, ch *cache.Cache, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{DB: db, Featured: feat, Uploads: uploads, Cache: ch, Log: log}
}

// FeaturedArtisans handles GET /api/users/featured.
func (h *UserHandler) FeaturedArtisans(c *fiber.Ctx) error {
	_, limit := catalog.Normalize(1, c.QueryInt("limit", catalog.DefaultLimit))
	useCache := limit == catalog.DefaultLimit

	var cached []featured.Artisan
	if useCache && h.Cache.Get(c.Context(), cacheKeyFeaturedArtisans, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	artisans, err := h.Featured.ListFeatured(limit)
	if err != nil {
		h.Log.Errorw("featured artisans failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch featured artisans")
	}

	if useCache {
		h.Cache.Set(c.Context(), cacheKeyFeaturedArtisans, artisans)
	}

	return c.JSON(fiber.Map{"success": true, "data": artisans})
}

// GetProfile handles GET /api/users/:userId (public). Viewing an artisan
// counts as a profile view.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	uid, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var user models.User
	if err := h.DB.
		Preload("CustomerProfile").
		Preload("ArtisanProfile").
		First(&user, "id = ? AND is_active = ?", uid, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	if user.Role == models.RoleArtisan {
		h.DB.Model(&models.ArtisanProfile{}).
			Where("user_id = ?", uid).
			Update("profile_views", gorm.Expr("profile_views + 1"))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    fullUser(&user),
	})
}

// GetMyProfile handles GET /api/users/me/profile.
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var user models.User
	if err := h.DB.
		Preload("CustomerProfile").
		Preload("ArtisanProfile").
		Preload("AdminProfile").
		First(&user, "id = ?", uid).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    fullUser(&user),
	})
}

// customer / artisan mutable profile columns; anything else in the payload
// is dropped without erroring
var customerMutable = map[string]bool{
	"full_name":   true,
	"city":        true,
	"state":       true,
	"lga":         true,
	"preferences": true,
}

var artisanMutable = map[string]bool{
	"contact_name":  true,
	"business_name": true,
	"phone_number":  true,
	"address":       true,
	"city":          true,
	"state":         true,
	"lga":           true,
	"business":      true,
	"specialties":   true,
	"experience":    true,
	"portfolio":     true,
}

var jsonColumns = map[string]bool{
	"preferences": true,
	"business":    true,
	"specialties": true,
	"portfolio":   true,
}

// UpdateMyProfile handles PUT /api/users/me/profile. The payload is filtered
// against the role's allow-list before anything is applied.
func (h *UserHandler) UpdateMyProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	role, _ := c.Locals("role").(string)

	var allowed map[string]bool
	var target interface{}
	switch models.Role(role) {
	case models.RoleCustomer:
		allowed = customerMutable
		target = &models.CustomerProfile{}
	case models.RoleArtisan:
		allowed = artisanMutable
		target = &models.ArtisanProfile{}
	default:
		return fail(c, fiber.StatusForbidden, "Profile updates are not available for this role")
	}

	updates := map[string]interface{}{}
	for key, val := range payload {
		if !allowed[key] {
			continue
		}
		if jsonColumns[key] {
			raw, err := json.Marshal(val)
			if err != nil {
				continue
			}
			updates[key] = datatypes.JSON(raw)
			continue
		}
		updates[key] = val
	}

	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, "No updatable fields in payload")
	}

	res := h.DB.Model(target).Where("user_id = ?", uid).Updates(updates)
	if res.Error != nil {
		h.Log.Errorw("profile update failed", "user", uid, "error", res.Error)
		return fail(c, fiber.StatusInternalServerError, "Could not update profile")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}

	return h.GetMyProfile(c)
}

// requireSelf enforces that the requester acts on their own record,
// independent of role.
func requireSelf(c *fiber.Ctx) (uuid.UUID, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return uuid.Nil, fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	pathID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return uuid.Nil, fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	if pathID != uid {
		return uuid.Nil, fail(c, fiber.StatusForbidden, "You can only modify your own account")
	}
	return uid, nil
}

// UploadProfileImage handles POST /api/users/:userId/profile-image.
func (h *UserHandler) UploadProfileImage(c *fiber.Ctx) error {
	uid, errResp := requireSelf(c)
	if uid == uuid.Nil {
		return errResp
	}

	fh, err := c.FormFile("profileImage")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "profileImage file is required")
	}

	url, err := h.Uploads.SaveImage(fh, "profiles")
	if err == storage.ErrUnsupportedType {
		return fail(c, fiber.StatusBadRequest, "Unsupported image format")
	}
	if err == storage.ErrTooLarge {
		return fail(c, fiber.StatusBadRequest, "Image is too large")
	}
	if err != nil {
		h.Log.Errorw("profile image upload failed", "user", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not save image")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", uid).Update("profile_image", url).Error; err != nil {
		h.Log.Errorw("profile image persist failed", "user", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     url,
	})
}

// UploadCACDocument handles POST /api/users/:userId/cac-document (artisans
// only, self only).
func (h *UserHandler) UploadCACDocument(c *fiber.Ctx) error {
	uid, errResp := requireSelf(c)
	if uid == uuid.Nil {
		return errResp
	}

	role, _ := c.Locals("role").(string)
	if models.Role(role) != models.RoleArtisan {
		return fail(c, fiber.StatusForbidden, "Only artisans have CAC documents")
	}

	fh, err := c.FormFile("cacDocument")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "cacDocument file is required")
	}

	url, err := h.Uploads.SaveDocument(fh, "cac")
	if err == storage.ErrUnsupportedType {
		return fail(c, fiber.StatusBadRequest, "Document must be an image or PDF")
	}
	if err == storage.ErrTooLarge {
		return fail(c, fiber.StatusBadRequest, "Document is too large")
	}
	if err != nil {
		h.Log.Errorw("cac upload failed", "user", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not save document")
	}

	res := h.DB.Model(&models.ArtisanProfile{}).Where("user_id = ?", uid).Update("cac_document", url)
	if res.Error != nil {
		h.Log.Errorw("cac persist failed", "user", uid, "error", res.Error)
		return fail(c, fiber.StatusInternalServerError, "Could not update profile")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "Artisan profile not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     url,
	})
}

// SaveArtisan handles POST /api/users/me/saved-artisans/:artisanId.
func (h *UserHandler) SaveArtisan(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	artisanID, err := uuid.Parse(c.Params("artisanId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid artisan ID")
	}

	var artisan models.User
	if err := h.DB.First(&artisan, "id = ? AND role = ? AND is_active = ?", artisanID, models.RoleArtisan, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Artisan not found")
	}

	row := models.SavedArtisan{CustomerID: uid, ArtisanID: artisanID}
	if err := h.DB.Where("customer_id = ? AND artisan_id = ?", uid, artisanID).
		FirstOrCreate(&row).Error; err != nil {
		h.Log.Errorw("save artisan failed", "customer", uid, "artisan", artisanID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not save artisan")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Artisan saved",
	})
}

// UnsaveArtisan handles DELETE /api/users/me/saved-artisans/:artisanId.
func (h *UserHandler) UnsaveArtisan(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	artisanID, err := uuid.Parse(c.Params("artisanId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid artisan ID")
	}

	if err := h.DB.
		Where("customer_id = ? AND artisan_id = ?", uid, artisanID).
		Delete(&models.SavedArtisan{}).Error; err != nil {
		h.Log.Errorw("unsave artisan failed", "customer", uid, "artisan", artisanID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not remove artisan")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Artisan removed",
	})
}

// ListSavedArtisans handles GET /api/users/me/saved-artisans.
func (h *UserHandler) ListSavedArtisans(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	type row struct {
		UserID       uuid.UUID `json:"user_id"`
		Username     string    `json:"username"`
		ProfileImage string    `json:"profile_image"`
		BusinessName string    `json:"business_name"`
		City         string    `json:"city"`
		State        string    `json:"state"`
		AverageRating float64  `json:"average_rating"`
	}
	var rows []row
	if err := h.DB.
		Table("saved_artisans").
		Select(`users.id as user_id, users.username, users.profile_image,
			artisan_profiles.business_name, artisan_profiles.city,
			artisan_profiles.state, artisan_profiles.average_rating`).
		Joins("JOIN users ON users.id = saved_artisans.artisan_id").
		Joins("JOIN artisan_profiles ON artisan_profiles.user_id = saved_artisans.artisan_id").
		Where("saved_artisans.customer_id = ? AND users.is_active = ?", uid, true).
		Order("saved_artisans.created_at DESC").
		Scan(&rows).Error; err != nil {
		h.Log.Errorw("saved artisans fetch failed", "customer", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch saved artisans")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rows,
	})
}

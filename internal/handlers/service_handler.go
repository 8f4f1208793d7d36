package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/cache"
	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/catalog"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/featured"
	"github.com/bizbridge-ng/bizbridge-api/internal/storage"
)

const maxServiceImages = 5

type ServiceHandler struct {
	DB       *gorm.DB
	Catalog  *catalog.Service
	Featured *featured.Service
	Uploads  *storage.Store
	Cache    *cache.Cache
	Log      *zap.SugaredLogger
}

func NewServiceHandler(db *gorm.DB, cat *catalog.Service, feat *featured.Service, uploads *storage.Store, ch *cache.Cache, log *zap.SugaredLogger) *ServiceHandler {
	return &ServiceHandler{DB: db, Catalog: cat, Featured: feat, Uploads: uploads, Cache: ch, Log: log}
}

// Create handles POST /api/services (artisan only, multipart, up to 5
// images).
func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	category := models.ServiceCategory(strings.ToLower(strings.TrimSpace(c.FormValue("category"))))
	priceType := models.PriceType(c.FormValue("priceType", string(models.PriceFixed)))

	errs := FieldErrors{}
	if title == "" {
		errs.Add("title", "Title is required")
	}
	if description == "" {
		errs.Add("description", "Description is required")
	}
	if !models.ValidCategory(category) {
		errs.Add("category", "Unknown category")
	}

	amount, amountErr := parseAmount(c.FormValue("priceAmount"))
	switch priceType {
	case models.PriceFixed:
		if amountErr != nil || amount <= 0 {
			errs.Add("priceAmount", "A fixed price must be a positive amount in kobo")
		}
	case models.PriceQuote:
		amount = 0
	default:
		errs.Add("priceType", "Price type must be fixed or quote")
	}

	locations, locErr := jsonField(c.FormValue("locations"))
	if locErr != nil {
		errs.Add("locations", "Locations must be a JSON array")
	}
	tags, tagErr := jsonField(c.FormValue("tags"))
	if tagErr != nil {
		errs.Add("tags", "Tags must be a JSON array")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var imageURLs []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["images"]
		if len(files) > maxServiceImages {
			errs.Add("images", "At most 5 images are allowed")
			return validationFail(c, errs)
		}
		for _, fh := range files {
			url, err := h.Uploads.SaveImage(fh, "services")
			if err == storage.ErrUnsupportedType || err == storage.ErrTooLarge {
				errs.Add("images", "Images must be jpg, png or webp under the size limit")
				return validationFail(c, errs)
			}
			if err != nil {
				h.Log.Errorw("service create: image save failed", "error", err)
				return fail(c, fiber.StatusInternalServerError, "Could not save image")
			}
			imageURLs = append(imageURLs, url)
		}
	}

	imagesJSON, _ := json.Marshal(imageURLs)

	currency := strings.ToUpper(strings.TrimSpace(c.FormValue("priceCurrency")))
	if currency == "" {
		currency = "NGN"
	}

	svc := models.Service{
		ArtisanID:     uid,
		Title:         title,
		Description:   description,
		Category:      category,
		PriceType:     priceType,
		PriceAmount:   amount,
		PriceCurrency: currency,
		Duration:      strings.TrimSpace(c.FormValue("duration")),
		Locations:     locations,
		Images:        datatypes.JSON(imagesJSON),
		Tags:          tags,
		IsActive:      true,
	}

	if err := h.DB.Create(&svc).Error; err != nil {
		h.Log.Errorw("service create failed", "artisan", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not save service")
	}

	h.invalidateFeatured(c)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Service created",
		"data":    svc,
	})
}

// ListPublic handles GET /api/services; Search is the customer-facing alias
// with the identical contract.
func (h *ServiceHandler) ListPublic(c *fiber.Ctx) error {
	res, err := h.Catalog.List(catalog.ListParams{
		Category: c.Query("category"),
		Location: c.Query("location"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", catalog.DefaultLimit),
		Sort:     c.Query("sort", "newest"),
	})
	if err != nil {
		h.Log.Errorw("service list failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch services")
	}
	return c.JSON(listResponse(res))
}

func (h *ServiceHandler) Search(c *fiber.Ctx) error {
	return h.ListPublic(c)
}

// ListMine handles GET /api/services/my. The owner sees inactive rows too.
func (h *ServiceHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	res, err := h.Catalog.List(catalog.ListParams{
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", catalog.DefaultLimit),
		Sort:            c.Query("sort", "newest"),
		IncludeInactive: true,
		ArtisanID:       &uid,
	})
	if err != nil {
		h.Log.Errorw("my services list failed", "artisan", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch services")
	}
	return c.JSON(listResponse(res))
}

// FeaturedList handles GET /api/services/featured. The response source tag
// distinguishes curated content from the popularity fallback.
func (h *ServiceHandler) FeaturedList(c *fiber.Ctx) error {
	_, limit := catalog.Normalize(1, c.QueryInt("limit", catalog.DefaultLimit))

	type payload struct {
		Source string           `json:"source"`
		Items  []models.Service `json:"items"`
	}

	// only the default page size is cached; curation writes invalidate it
	useCache := limit == catalog.DefaultLimit

	var cached payload
	if useCache && h.Cache.Get(c.Context(), cacheKeyFeaturedServices, &cached) {
		return c.JSON(fiber.Map{
			"success": true,
			"source":  cached.Source,
			"data":    cached.Items,
		})
	}

	items, source, err := h.Featured.FeaturedServices(limit)
	if err != nil {
		h.Log.Errorw("featured services failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch featured services")
	}

	if useCache {
		h.Cache.Set(c.Context(), cacheKeyFeaturedServices, payload{Source: source, Items: items})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"source":  source,
		"data":    items,
	})
}

// GetDetail handles GET /api/services/:serviceId (public, active only).
func (h *ServiceHandler) GetDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("serviceId")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}

	var svc models.Service
	if err := h.DB.Preload("Artisan.ArtisanProfile").First(&svc, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Service not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    svc,
	})
}

// owned loads a service and enforces the ownership invariant: absent → 404,
// someone else's → 403.
func (h *ServiceHandler) owned(c *fiber.Ctx) (*models.Service, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return nil, fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := c.ParamsInt("serviceId")
	if err != nil || id < 1 {
		return nil, fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}

	var svc models.Service
	if err := h.DB.First(&svc, "id = ?", id).Error; err != nil {
		return nil, fail(c, fiber.StatusNotFound, "Service not found")
	}
	if svc.ArtisanID != uid {
		return nil, fail(c, fiber.StatusForbidden, "You do not own this service")
	}
	return &svc, nil
}

type ServiceUpdateReq struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	PriceType     *string          `json:"price_type"`
	PriceAmount   *int64           `json:"price_amount"`
	PriceCurrency *string          `json:"price_currency"`
	Duration      *string          `json:"duration"`
	Locations     *json.RawMessage `json:"locations"`
	Tags          *json.RawMessage `json:"tags"`
}

// Update handles PUT /api/services/:serviceId (owner only). Only fields
// present in the body are touched.
func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	svc, err := h.owned(c)
	if svc == nil {
		return err
	}

	var req ServiceUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	errs := FieldErrors{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			errs.Add("title", "Title cannot be empty")
		} else {
			svc.Title = strings.TrimSpace(*req.Title)
		}
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		cat := models.ServiceCategory(strings.ToLower(*req.Category))
		if !models.ValidCategory(cat) {
			errs.Add("category", "Unknown category")
		} else {
			svc.Category = cat
		}
	}
	if req.PriceType != nil {
		pt := models.PriceType(*req.PriceType)
		if pt != models.PriceFixed && pt != models.PriceQuote {
			errs.Add("priceType", "Price type must be fixed or quote")
		} else {
			svc.PriceType = pt
			if pt == models.PriceQuote {
				svc.PriceAmount = 0
			}
		}
	}
	if req.PriceAmount != nil {
		if *req.PriceAmount < 0 {
			errs.Add("priceAmount", "Price cannot be negative")
		} else {
			svc.PriceAmount = *req.PriceAmount
		}
	}
	if req.PriceCurrency != nil {
		svc.PriceCurrency = strings.ToUpper(strings.TrimSpace(*req.PriceCurrency))
	}
	if req.Duration != nil {
		svc.Duration = strings.TrimSpace(*req.Duration)
	}
	if req.Locations != nil {
		svc.Locations = datatypes.JSON(*req.Locations)
	}
	if req.Tags != nil {
		svc.Tags = datatypes.JSON(*req.Tags)
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if err := h.DB.Save(svc).Error; err != nil {
		h.Log.Errorw("service update failed", "service", svc.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update service")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service updated",
		"data":    svc,
	})
}

// Delete handles DELETE /api/services/:serviceId (owner only, hard delete).
// The artisan's service list is derived by query, so there is no
// back-reference to keep in sync.
func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	svc, err := h.owned(c)
	if svc == nil {
		return err
	}

	if err := h.DB.Delete(svc).Error; err != nil {
		h.Log.Errorw("service delete failed", "service", svc.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not delete service")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service deleted",
	})
}

type ServiceStatusReq struct {
	IsActive *bool `json:"is_active"`
}

// ToggleStatus handles PATCH /api/services/:serviceId/status (owner only).
func (h *ServiceHandler) ToggleStatus(c *fiber.Ctx) error {
	svc, err := h.owned(c)
	if svc == nil {
		return err
	}

	var req ServiceStatusReq
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return fail(c, fiber.StatusBadRequest, "is_active is required")
	}

	if err := h.DB.Model(svc).Update("is_active", *req.IsActive).Error; err != nil {
		h.Log.Errorw("service status toggle failed", "service", svc.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update service")
	}

	h.invalidateFeatured(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service status updated",
		"data": fiber.Map{
			"id":        svc.ID,
			"is_active": *req.IsActive,
		},
	})
}

type ReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /api/services/:serviceId/reviews (customer
// only). The service's rating aggregate and the artisan's profile totals are
// recomputed in the same transaction as the insert.
func (h *ServiceHandler) CreateReview(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := c.ParamsInt("serviceId")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		errs := FieldErrors{}
		errs.Add("rating", "Rating must be between 1 and 5")
		return validationFail(c, errs)
	}

	var svc models.Service
	if err := h.DB.First(&svc, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Service not found")
	}

	review := models.Review{
		ServiceID:  svc.ID,
		CustomerID: uid,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		var stats struct {
			Avg float64
			Cnt int64
		}
		if err := tx.Model(&models.Review{}).
			Where("service_id = ?", svc.ID).
			Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as cnt").
			Scan(&stats).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Service{}).
			Where("id = ?", svc.ID).
			Updates(map[string]interface{}{
				"rating_average": stats.Avg,
				"rating_count":   stats.Cnt,
			}).Error; err != nil {
			return err
		}

		// artisan-level aggregate across all their services
		var overall struct {
			Avg float64
			Cnt int64
		}
		if err := tx.Model(&models.Review{}).
			Joins("JOIN services ON services.id = reviews.service_id").
			Where("services.artisan_id = ?", svc.ArtisanID).
			Select("COALESCE(AVG(reviews.rating), 0) as avg, COUNT(*) as cnt").
			Scan(&overall).Error; err != nil {
			return err
		}
		return tx.Model(&models.ArtisanProfile{}).
			Where("user_id = ?", svc.ArtisanID).
			Updates(map[string]interface{}{
				"average_rating": overall.Avg,
				"total_reviews":  overall.Cnt,
			}).Error
	})
	if err != nil {
		h.Log.Errorw("review create failed", "service", svc.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not save review")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review submitted",
		"data":    review,
	})
}

// GetReviews handles GET /api/services/:serviceId/reviews (public).
func (h *ServiceHandler) GetReviews(c *fiber.Ctx) error {
	id, err := c.ParamsInt("serviceId")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}

	var reviews []models.Review
	if err := h.DB.
		Where("service_id = ?", id).
		Preload("Customer").
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		h.Log.Errorw("reviews fetch failed", "service", id, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch reviews")
	}

	out := make([]fiber.Map, 0, len(reviews))
	for _, r := range reviews {
		reviewer := fiber.Map{"username": "", "profile_image": ""}
		if r.Customer != nil {
			reviewer = fiber.Map{
				"username":      r.Customer.Username,
				"profile_image": r.Customer.ProfileImage,
			}
		}
		out = append(out, fiber.Map{
			"id":         r.ID,
			"rating":     r.Rating,
			"comment":    r.Comment,
			"created_at": r.CreatedAt,
			"reviewer":   reviewer,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *ServiceHandler) invalidateFeatured(c *fiber.Ctx) {
	h.Cache.Delete(c.Context(), cacheKeyFeaturedServices, cacheKeyFeaturedArtisans)
}

func listResponse(res *catalog.Result) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    res.Items,
		"meta": fiber.Map{
			"page":        res.Page,
			"limit":       res.Limit,
			"total_items": res.TotalItems,
			"total_pages": res.TotalPages,
		},
	}
}

package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

type BookingHandler struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func NewBookingHandler(db *gorm.DB, log *zap.SugaredLogger) *BookingHandler {
	return &BookingHandler{DB: db, Log: log}
}

type BookingReq struct {
	ServiceID uint   `json:"service_id"`
	Date      string `json:"date"` // 2006-01-02
	Note      string `json:"note"`
}

// Create handles POST /api/bookings (customer only). The artisan is derived
// from the service, never taken from the body.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req BookingReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	if req.ServiceID == 0 {
		return fail(c, fiber.StatusBadRequest, "service_id is required")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	var svc models.Service
	if err := h.DB.First(&svc, "id = ? AND is_active = ?", req.ServiceID, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Service not found")
	}

	booking := models.Booking{
		CustomerID: uid,
		ArtisanID:  svc.ArtisanID,
		ServiceID:  svc.ID,
		Status:     models.BookingPending,
		Date:       date,
		Note:       strings.TrimSpace(req.Note),
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return tx.Model(&models.ArtisanProfile{}).
			Where("user_id = ?", svc.ArtisanID).
			Update("total_bookings", gorm.Expr("total_bookings + 1")).Error
	})
	if err != nil {
		h.Log.Errorw("booking create failed", "customer", uid, "service", svc.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not create booking")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Booking created",
		"data":    booking,
	})
}

// ListMine handles GET /api/bookings/my. Customers see bookings they made,
// artisans see bookings made with them.
func (h *BookingHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	role, _ := c.Locals("role").(string)
	column := "customer_id"
	if models.Role(role) == models.RoleArtisan {
		column = "artisan_id"
	}

	var bookings []models.Booking
	if err := h.DB.
		Where(column+" = ?", uid).
		Preload("Service").
		Preload("Customer").
		Preload("Artisan").
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		h.Log.Errorw("booking list failed", "user", uid, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not fetch bookings")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bookings,
	})
}

type BookingStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/bookings/:id/status (owning artisan only).
// Any valid status can be set; there are no transition rules.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid booking ID")
	}

	var req BookingStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	status := models.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !models.ValidBookingStatus(status) {
		return fail(c, fiber.StatusBadRequest, "Unknown booking status")
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Booking not found")
	}
	if booking.ArtisanID != uid {
		return fail(c, fiber.StatusForbidden, "You do not own this booking")
	}

	completing := status == models.BookingCompleted && booking.Status != models.BookingCompleted

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&booking).Update("status", status).Error; err != nil {
			return err
		}
		if completing {
			return tx.Model(&models.ArtisanProfile{}).
				Where("user_id = ?", uid).
				Update("completed_bookings", gorm.Expr("completed_bookings + 1")).Error
		}
		return nil
	})
	if err != nil {
		h.Log.Errorw("booking status update failed", "booking", bookingID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not update booking")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Booking status updated",
		"data": fiber.Map{
			"id":     booking.ID,
			"status": status,
		},
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

// GetCategories returns the closed category set with active listing counts,
// so the client can render category filters without hardcoding the enum.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	type countRow struct {
		Category models.ServiceCategory
		Count    int64
	}
	var rows []countRow
	err := h.DB.
		Model(&models.Service{}).
		Select("category, COUNT(*) as count").
		Where("is_active = ?", true).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not fetch categories")
	}

	counts := make(map[models.ServiceCategory]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}

	out := make([]fiber.Map, 0)
	for _, cat := range models.Categories() {
		out = append(out, fiber.Map{
			"name":            cat,
			"active_services": counts[cat],
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

func TestGetCategories(t *testing.T) {
	env := newTestEnv(t)
	artisanID, _ := env.seedUser(t, models.RoleArtisan, "cats")
	env.seedService(t, artisanID, "Counted", true)
	env.seedService(t, artisanID, "Also counted", true)
	env.seedService(t, artisanID, "Paused", false)

	resp, body := env.request(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["data"].([]any)
	require.Len(t, items, len(models.Categories()))

	byName := map[string]float64{}
	for _, it := range items {
		m := it.(map[string]any)
		byName[m["name"].(string)] = m["active_services"].(float64)
	}

	assert.EqualValues(t, 2, byName["tailoring"])
	assert.EqualValues(t, 0, byName["welding"])
}

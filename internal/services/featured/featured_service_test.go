package featured

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ArtisanProfile{},
		&models.Service{},
	))
	return db
}

func addArtisan(t *testing.T, db *gorm.DB, name string, createdAt time.Time) uuid.UUID {
	t.Helper()
	user := models.User{
		Email:     name + "@example.com",
		Username:  name,
		Password:  "x",
		Role:      models.RoleArtisan,
		IsActive:  true,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&user).Error)
	profile := models.ArtisanProfile{
		UserID:       user.ID,
		ContactName:  name,
		BusinessName: name + " Works",
		PhoneNumber:  "08000000000",
	}
	require.NoError(t, db.Create(&profile).Error)
	return user.ID
}

func addService(t *testing.T, db *gorm.DB, artisan uuid.UUID, title string, rating float64, active bool) uint {
	t.Helper()
	svc := models.Service{
		ArtisanID:     artisan,
		Title:         title,
		Description:   "d",
		Category:      models.CategoryTailoring,
		PriceType:     models.PriceFixed,
		PriceAmount:   500000,
		RatingAverage: rating,
		IsActive:      active,
	}
	require.NoError(t, db.Create(&svc).Error)
	return svc.ID
}

func feature(t *testing.T, svc *Service, id uuid.UUID, order int) {
	t.Helper()
	_, err := svc.SetFeatured(id, true, nil, &order)
	require.NoError(t, err)
}

func TestSetFeatured(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	t.Run("unknown artisan", func(t *testing.T) {
		_, err := svc.SetFeatured(uuid.New(), true, nil, nil)
		assert.ErrorIs(t, err, ErrArtisanNotFound)
	})

	t.Run("non-artisan target looks like not found", func(t *testing.T) {
		customer := models.User{
			Email:    "cust@example.com",
			Username: "cust",
			Password: "x",
			Role:     models.RoleCustomer,
			IsActive: true,
		}
		require.NoError(t, db.Create(&customer).Error)

		_, err := svc.SetFeatured(customer.ID, true, nil, nil)
		assert.ErrorIs(t, err, ErrArtisanNotFound)
	})

	t.Run("enable with duration sets window", func(t *testing.T) {
		id := addArtisan(t, db, "ada", time.Now())
		days := 7
		order := 2

		profile, err := svc.SetFeatured(id, true, &days, &order)
		require.NoError(t, err)

		assert.True(t, profile.IsFeatured)
		assert.Equal(t, 2, profile.FeaturedOrder)
		require.NotNil(t, profile.FeaturedUntil)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *profile.FeaturedUntil, time.Minute)
	})

	t.Run("enable without duration has no expiry", func(t *testing.T) {
		id := addArtisan(t, db, "bola", time.Now())
		profile, err := svc.SetFeatured(id, true, nil, nil)
		require.NoError(t, err)
		assert.True(t, profile.IsFeatured)
		assert.Nil(t, profile.FeaturedUntil)
	})

	t.Run("disable clears window but keeps order", func(t *testing.T) {
		id := addArtisan(t, db, "chi", time.Now())
		days := 3
		order := 5
		_, err := svc.SetFeatured(id, true, &days, &order)
		require.NoError(t, err)

		profile, err := svc.SetFeatured(id, false, nil, nil)
		require.NoError(t, err)
		assert.False(t, profile.IsFeatured)
		assert.Nil(t, profile.FeaturedUntil)
		assert.Equal(t, 5, profile.FeaturedOrder)
	})
}

func TestListFeatured(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := addArtisan(t, db, "a", base)
	b := addArtisan(t, db, "b", base.Add(time.Hour)) // newer account
	c := addArtisan(t, db, "c", base)

	feature(t, svc, a, 2)
	feature(t, svc, b, 1)
	feature(t, svc, c, 1)

	t.Run("orders by featured_order then newest account", func(t *testing.T) {
		got, err := svc.ListFeatured(10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// order 1 first; among the two order-1 artisans the newer
		// account wins the tiebreak
		assert.Equal(t, b, got[0].UserID)
		assert.Equal(t, c, got[1].UserID)
		assert.Equal(t, a, got[2].UserID)
	})

	t.Run("reordering one artisan leaves others' relative order alone", func(t *testing.T) {
		require.NoError(t, svc.Reorder([]OrderUpdate{{ArtisanID: a, Order: 0}}))

		got, err := svc.ListFeatured(10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, a, got[0].UserID)
		// b before c, exactly as before
		assert.Equal(t, b, got[1].UserID)
		assert.Equal(t, c, got[2].UserID)
	})

	t.Run("expired promotions are filtered everywhere", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		require.NoError(t, db.Model(&models.ArtisanProfile{}).
			Where("user_id = ?", b).
			Update("featured_until", past).Error)

		got, err := svc.ListFeatured(10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, row := range got {
			assert.NotEqual(t, b, row.UserID)
		}
	})

	t.Run("inactive accounts never appear", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).
			Where("id = ?", a).
			Update("is_active", false).Error)

		got, err := svc.ListFeatured(10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c, got[0].UserID)
	})

	t.Run("limit caps the list", func(t *testing.T) {
		got, err := svc.ListFeatured(0)
		require.NoError(t, err)
		assert.Len(t, got, 0)
	})
}

func TestReorderIsAtomic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	a := addArtisan(t, db, "a", time.Now())
	b := addArtisan(t, db, "b", time.Now())
	feature(t, svc, a, 1)
	feature(t, svc, b, 2)

	err := svc.Reorder([]OrderUpdate{
		{ArtisanID: a, Order: 9},
		{ArtisanID: uuid.New(), Order: 1}, // unknown, fails mid-batch
	})
	require.ErrorIs(t, err, ErrArtisanNotFound)

	// the first update must have been rolled back
	var profile models.ArtisanProfile
	require.NoError(t, db.First(&profile, "user_id = ?", a).Error)
	assert.Equal(t, 1, profile.FeaturedOrder)
}

func TestFeaturedServices(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	t.Run("fallback to top-rated when nothing featured", func(t *testing.T) {
		a := addArtisan(t, db, "fa", time.Now())
		addService(t, db, a, "low", 3.0, true)
		addService(t, db, a, "high", 4.8, true)
		addService(t, db, a, "hidden", 5.0, false)

		items, source, err := svc.FeaturedServices(10)
		require.NoError(t, err)
		assert.Equal(t, SourcePopular, source)
		require.Len(t, items, 2)
		assert.Equal(t, "high", items[0].Title)
		assert.Equal(t, "low", items[1].Title)
	})

	t.Run("one service per featured artisan in rank order", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewService(db)

		first := addArtisan(t, db, "first", time.Now())
		second := addArtisan(t, db, "second", time.Now())
		feature(t, svc, first, 1)
		feature(t, svc, second, 2)

		addService(t, db, first, "first best", 4.9, true)
		addService(t, db, first, "first other", 4.0, true)
		addService(t, db, second, "second best", 2.0, true)

		items, source, err := svc.FeaturedServices(10)
		require.NoError(t, err)
		assert.Equal(t, SourceFeatured, source)
		require.Len(t, items, 2)
		// artisan rank order, not rating order
		assert.Equal(t, "first best", items[0].Title)
		assert.Equal(t, "second best", items[1].Title)
	})

	t.Run("featured artisan without services falls back", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewService(db)

		bare := addArtisan(t, db, "bare", time.Now())
		feature(t, svc, bare, 1)

		other := addArtisan(t, db, "other", time.Now())
		addService(t, db, other, "plain", 4.0, true)

		items, source, err := svc.FeaturedServices(10)
		require.NoError(t, err)
		assert.Equal(t, SourcePopular, source)
		require.Len(t, items, 1)
		assert.Equal(t, "plain", items[0].Title)
	})
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/bizbridge-ng/bizbridge-api/internal/cache"
	"github.com/bizbridge-ng/bizbridge-api/internal/config"
	"github.com/bizbridge-ng/bizbridge-api/internal/db"
	"github.com/bizbridge-ng/bizbridge-api/internal/handlers"
	"github.com/bizbridge-ng/bizbridge-api/internal/logger"
	"github.com/bizbridge-ng/bizbridge-api/internal/middleware"
	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/catalog"
	"github.com/bizbridge-ng/bizbridge-api/internal/services/featured"
	"github.com/bizbridge-ng/bizbridge-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		zlog.Fatalw("database connect failed", "error", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.CustomerProfile{},
		&models.ArtisanProfile{},
		&models.AdminProfile{},
		&models.Service{},
		&models.Review{},
		&models.Booking{},
		&models.SavedArtisan{},
	); err != nil {
		zlog.Fatalw("migration failed", "error", err)
	}

	ch := cache.New(cfg.RedisAddr, cfg.RedisPassword, 2*time.Minute)
	if err := ch.Ping(context.Background()); err != nil {
		zlog.Warnw("redis unreachable, caching and rate limiting disabled", "error", err)
		ch = nil
	}

	uploads := storage.New(cfg.UploadDir, cfg.AppBaseURL)
	catalogSvc := catalog.NewService(gdb)
	featuredSvc := featured.NewService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
		Uploads:   uploads,
		Log:       zlog,
	}
	serviceH := handlers.NewServiceHandler(gdb, catalogSvc, featuredSvc, uploads, ch, zlog)
	userH := handlers.NewUserHandler(gdb, featuredSvc, uploads, ch, zlog)
	adminH := handlers.NewAdminHandler(gdb, featuredSvc, ch, zlog)
	bookingH := handlers.NewBookingHandler(gdb, zlog)
	categoryH := handlers.NewCategoryHandler(gdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", cfg.UploadDir)

	authLimiter := middleware.NewRateLimiter(ch.Client(), "rl:auth", 10, time.Minute)

	api := app.Group("/api")

	// public
	auth := api.Group("/auth", authLimiter.ByIP())
	auth.Post("/register/customer", authH.RegisterCustomer)
	auth.Post("/register/artisan", authH.RegisterArtisan)
	auth.Post("/login", authH.Login)

	api.Get("/categories", categoryH.GetCategories)
	api.Get("/services", serviceH.ListPublic)
	api.Get("/services/search", serviceH.Search)
	api.Get("/services/featured", serviceH.FeaturedList)
	api.Get("/services/:serviceId<int>", serviceH.GetDetail)
	api.Get("/services/:serviceId<int>/reviews", serviceH.GetReviews)
	api.Get("/users/featured", userH.FeaturedArtisans)
	// registered before the protected group so the profile surface stays
	// public; static /users paths above win over the param
	api.Get("/users/:userId", userH.GetProfile)

	// protected
	protected := api.Group("/",
		middleware.JWTFromHeader(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", authH.Me)

	protected.Get("/users/me/profile", userH.GetMyProfile)
	protected.Put("/users/me/profile", userH.UpdateMyProfile)
	protected.Get("/users/me/saved-artisans",
		middleware.RequireRoles("customer"), userH.ListSavedArtisans)
	protected.Post("/users/me/saved-artisans/:artisanId",
		middleware.RequireRoles("customer"), userH.SaveArtisan)
	protected.Delete("/users/me/saved-artisans/:artisanId",
		middleware.RequireRoles("customer"), userH.UnsaveArtisan)
	protected.Post("/users/:userId/profile-image", userH.UploadProfileImage)
	protected.Post("/users/:userId/cac-document", userH.UploadCACDocument)

	protected.Get("/services/my",
		middleware.RequireRoles("artisan"), serviceH.ListMine)
	protected.Post("/services",
		middleware.RequireRoles("artisan"), serviceH.Create)
	protected.Put("/services/:serviceId<int>",
		middleware.RequireRoles("artisan"), serviceH.Update)
	protected.Delete("/services/:serviceId<int>",
		middleware.RequireRoles("artisan"), serviceH.Delete)
	protected.Patch("/services/:serviceId<int>/status",
		middleware.RequireRoles("artisan"), serviceH.ToggleStatus)
	protected.Post("/services/:serviceId<int>/reviews",
		middleware.RequireRoles("customer"), serviceH.CreateReview)

	protected.Post("/bookings",
		middleware.RequireRoles("customer"), bookingH.Create)
	protected.Get("/bookings/my",
		middleware.RequireRoles("customer", "artisan"), bookingH.ListMine)
	protected.Patch("/bookings/:id/status",
		middleware.RequireRoles("artisan"), bookingH.UpdateStatus)

	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/stats", adminH.Stats)
	admin.Get("/artisans", adminH.ListArtisans)
	admin.Patch("/artisans/:id/feature", adminH.FeatureArtisan)
	admin.Patch("/featured-artisans/reorder", adminH.ReorderFeatured)
	admin.Patch("/artisans/:id/verify", adminH.VerifyArtisan)
	admin.Patch("/users/:id/status", adminH.SetUserStatus)

	zlog.Infow("listening", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zlog.Fatalw("server exited", "error", err)
	}
}

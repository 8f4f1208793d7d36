package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
	"github.com/bizbridge-ng/bizbridge-api/internal/storage"
	"github.com/bizbridge-ng/bizbridge-api/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
	Uploads   *storage.Store
	Log       *zap.SugaredLogger
}

// RegisterCustomer handles POST /api/auth/register/customer (multipart, with
// an optional profileImage part).
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	fullName := strings.TrimSpace(c.FormValue("fullName"))

	errs := FieldErrors{}
	validateCommon(errs, email, username, password)
	if fullName == "" {
		errs.Add("fullName", "Full name is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user := models.User{
		Email:    email,
		Username: username,
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	profile := models.CustomerProfile{
		FullName: fullName,
		City:     strings.TrimSpace(c.FormValue("city")),
		State:    strings.TrimSpace(c.FormValue("state")),
		LGA:      strings.TrimSpace(c.FormValue("lga")),
	}

	return h.register(c, &user, func(tx *gorm.DB) error {
		profile.UserID = user.ID
		return tx.Create(&profile).Error
	}, password)
}

// RegisterArtisan handles POST /api/auth/register/artisan.
func (h *AuthHandler) RegisterArtisan(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	contactName := strings.TrimSpace(c.FormValue("contactName"))
	businessName := strings.TrimSpace(c.FormValue("businessName"))
	phoneNumber := strings.TrimSpace(c.FormValue("phoneNumber"))

	errs := FieldErrors{}
	validateCommon(errs, email, username, password)
	if contactName == "" {
		errs.Add("contactName", "Contact name is required")
	}
	if businessName == "" {
		errs.Add("businessName", "Business name is required")
	}
	if phoneNumber == "" {
		errs.Add("phoneNumber", "Phone number is required")
	} else if len(phoneNumber) < 8 {
		errs.Add("phoneNumber", "Phone number is not valid")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user := models.User{
		Email:    email,
		Username: username,
		Role:     models.RoleArtisan,
		IsActive: true,
	}
	profile := models.ArtisanProfile{
		ContactName:  contactName,
		BusinessName: businessName,
		PhoneNumber:  phoneNumber,
		Address:      strings.TrimSpace(c.FormValue("address")),
		City:         strings.TrimSpace(c.FormValue("city")),
		State:        strings.TrimSpace(c.FormValue("state")),
		LGA:          strings.TrimSpace(c.FormValue("lga")),
	}

	return h.register(c, &user, func(tx *gorm.DB) error {
		profile.UserID = user.ID
		return tx.Create(&profile).Error
	}, password)
}

func validateCommon(errs FieldErrors, email, username, password string) {
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Email format is not valid")
	}
	if username == "" {
		errs.Add("username", "Username is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
}

// register runs the shared tail of both registration flows: duplicate check,
// hash, optional profile image, user + role profile in one transaction, then
// a signed token.
func (h *AuthHandler) register(c *fiber.Ctx, user *models.User, createProfile func(tx *gorm.DB) error, password string) error {
	// single OR lookup so the response can name the colliding field
	var existing models.User
	err := h.DB.Where("email = ? OR username = ?", user.Email, user.Username).First(&existing).Error
	if err == nil {
		errs := FieldErrors{}
		if existing.Email == user.Email {
			errs.Add("email", "Email is already registered")
		} else {
			errs.Add("username", "Username is already taken")
		}
		return validationFail(c, errs)
	}
	if err != gorm.ErrRecordNotFound {
		h.Log.Errorw("register: duplicate lookup failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		h.Log.Errorw("register: hash failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	user.Password = hashed

	if fh, err := c.FormFile("profileImage"); err == nil && fh != nil {
		url, err := h.Uploads.SaveImage(fh, "profiles")
		if err == storage.ErrUnsupportedType {
			errs := FieldErrors{}
			errs.Add("profileImage", "Unsupported image format")
			return validationFail(c, errs)
		}
		if err == storage.ErrTooLarge {
			errs := FieldErrors{}
			errs.Add("profileImage", "Image is too large")
			return validationFail(c, errs)
		}
		if err != nil {
			h.Log.Errorw("register: profile image save failed", "error", err)
			return fail(c, fiber.StatusInternalServerError, "Could not save profile image")
		}
		user.ProfileImage = url
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return createProfile(tx)
	})
	if err != nil {
		h.Log.Errorw("register: create failed", "email", user.Email, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Registration failed")
	}

	token, err := utils.SignJWT(h.JWTSecret, user.ID.String(), string(user.Role), user.Email, h.Expires)
	if err != nil {
		h.Log.Errorw("register: token sign failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not create token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    publicUser(user),
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		// same message as a wrong password: never reveal whether the
		// email exists
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return fail(c, fiber.StatusForbidden, "Account is deactivated")
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_active", now)

	token, err := utils.SignJWT(h.JWTSecret, user.ID.String(), string(user.Role), user.Email, h.Expires)
	if err != nil {
		h.Log.Errorw("login: token sign failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Could not create token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    publicUser(&user),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
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
		return fail(c, fiber.StatusUnauthorized, "User not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    fullUser(&user),
	})
}

func publicUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":            u.ID,
		"email":         u.Email,
		"username":      u.Username,
		"role":          u.Role,
		"is_verified":   u.IsVerified,
		"profile_image": u.ProfileImage,
		"created_at":    u.CreatedAt,
	}
}

func fullUser(u *models.User) fiber.Map {
	out := publicUser(u)
	out["is_active"] = u.IsActive
	out["last_active"] = u.LastActive
	switch u.Role {
	case models.RoleCustomer:
		out["customer_profile"] = u.CustomerProfile
	case models.RoleArtisan:
		out["artisan_profile"] = u.ArtisanProfile
	case models.RoleAdmin:
		out["admin_profile"] = u.AdminProfile
	}
	return out
}

package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blogium/config"
	"blogium/models"
	"blogium/store"
	"blogium/utils"
)

const tokenTTL = 72 * time.Hour

// AuthController handles registration, login and profile maintenance.
type AuthController struct {
	store *store.Store
}

// NewAuthController creates an AuthController.
func NewAuthController(st *store.Store) *AuthController {
	return &AuthController{store: st}
}

// publicUser is the profile payload safe to show to any viewer. Email and
// password hash stay private.
func publicUser(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"created_at": u.CreatedAt,
	}
}

func validUsername(name string) bool {
	if l := len(name); l < 2 || l > 32 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username      string `json:"username" binding:"required,min=2,max=32"`
		FirstName     string `json:"first_name" binding:"max=64"`
		LastName      string `json:"last_name" binding:"max=64"`
		Email         string `json:"email" binding:"omitempty,email"`
		Password      string `json:"password" binding:"required,min=8,max=64"`
		Confirm       string `json:"confirm" binding:"required"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40001, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username may contain letters, digits and -_. only")
		return
	}
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40003, "passwords do not match")
		return
	}

	if config.Get().RegisterCaptchaEnabled {
		if !utils.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer) {
			utils.Error(ctx, http.StatusBadRequest, 40004, "captcha answer invalid or expired")
			return
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := a.store.CreateUser(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Login verifies credentials and issues a JWT. Unknown username and wrong
// password produce the same response.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40010, err)
		return
	}

	user, err := a.store.GetUserByUsername(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 {
		token := strings.TrimSpace(parts[1])
		if claims, err := utils.ParseToken(token); err == nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's own record, email included.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40116, "unauthorized")
		return
	}
	user, err := a.store.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile edits the acting user's own first/last name, username and
// email. The profile being edited is always the viewer's own; there is no
// way to address another user here.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	type request struct {
		Username  string `json:"username" binding:"required,min=2,max=32"`
		FirstName string `json:"first_name" binding:"max=64"`
		LastName  string `json:"last_name" binding:"max=64"`
		Email     string `json:"email" binding:"omitempty,email"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40030, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40031, "username may contain letters, digits and -_. only")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40117, "unauthorized")
		return
	}
	user, err := a.store.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
		return
	}

	oldUsername := user.Username
	user.Username = req.Username
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Email = strings.TrimSpace(req.Email)

	if err := a.store.SaveUser(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			utils.Error(ctx, http.StatusConflict, 40902, "username already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to update profile")
		return
	}

	utils.InvalidateByPrefix("cache:user:" + oldUsername + ":")
	utils.InvalidateByPrefix("cache:user:" + user.Username + ":")

	utils.Success(ctx, gin.H{"user": user})
}

// ChangePassword verifies the current password before setting a new one.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	type request struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
		Confirm     string `json:"confirm" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, 40040, err)
		return
	}
	if req.NewPassword != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40041, "passwords do not match")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40118, "unauthorized")
		return
	}
	user, err := a.store.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40412, "user not found")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to hash password")
		return
	}
	user.PasswordHash = hash
	if err := a.store.SaveUser(ctx.Request.Context(), &user); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to change password")
		return
	}

	utils.Success(ctx, gin.H{"message": "password changed"})
}

// GetUserPublicByUsername returns public profile info by username.
func (a *AuthController) GetUserPublicByUsername(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusNotFound, 40413, "user not found")
		return
	}
	user, err := a.store.GetUserByUsername(ctx.Request.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40413, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to get user")
		return
	}
	utils.Success(ctx, gin.H{"profile": publicUser(user)})
}

// Captcha serves a registration captcha when the gate is enabled.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"captcha_id": id, "captcha_image": b64})
}

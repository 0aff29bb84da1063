package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/config"
	"github.com/iliyamo/concept-booking/internal/model"
	"github.com/iliyamo/concept-booking/internal/repository"
	"github.com/iliyamo/concept-booking/internal/utils"
)

// HolderStore persists verified holders.
type HolderStore interface {
	Upsert(ctx context.Context, h model.Holder) error
	GetByID(ctx context.Context, id string) (model.Holder, error)
	Rename(ctx context.Context, id, name string) error
}

// PasswordSource exposes the bcrypt hash of the venue verification
// password.
type PasswordSource interface {
	PasswordHash(ctx context.Context) (string, error)
}

// AuthHandler verifies holders and manages their profile.
type AuthHandler struct {
	Cfg       config.Config
	Holders   HolderStore
	Passwords PasswordSource
}

func NewAuthHandler(cfg config.Config, hs HolderStore, ps PasswordSource) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Holders: hs, Passwords: ps}
}

// ----- DTOs -----

type verifyReq struct {
	HolderID string `json:"holder_id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

type renameReq struct {
	Name string `json:"name"`
}

type verifyResp struct {
	Holder model.Holder      `json:"holder"`
	Access utils.AccessToken `json:"access"`
}

// Verify: the holder proves they know the venue password, is recorded and
// gets an access token.  Holders listed in ADMIN_IDS are issued the ADMIN
// role.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.HolderID = strings.TrimSpace(req.HolderID)
	req.Name = strings.TrimSpace(req.Name)
	if req.HolderID == "" || req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder_id/name/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	hash, err := h.Passwords.PasswordHash(ctx)
	if err != nil {
		log.Printf("auth: load password hash: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "verification unavailable"})
	}
	if hash == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "verification password is not configured"})
	}
	if !utils.VerifyPassword(hash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong password"})
	}

	holder := model.Holder{
		ID:      req.HolderID,
		Name:    req.Name,
		Contact: strings.TrimSpace(req.Contact),
		Role:    h.Cfg.RoleFor(req.HolderID),
	}
	if err := h.Holders.Upsert(ctx, holder); err != nil {
		log.Printf("auth: upsert holder %s: %v", holder.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save holder failed"})
	}
	if stored, err := h.Holders.GetByID(ctx, holder.ID); err == nil {
		holder = stored
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, holder.ID, holder.Role, h.Cfg.AccessTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, verifyResp{Holder: holder, Access: access})
}

// Me: GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := holderID(c)
	if id == "" {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	holder, err := h.Holders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "holder not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load holder failed"})
	}
	return c.JSON(http.StatusOK, holder)
}

// Rename: PUT /v1/me/name
func (h *AuthHandler) Rename(c echo.Context) error {
	id, err := holderID(c)
	if id == "" {
		return err
	}
	var req renameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-255 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	switch err := h.Holders.Rename(ctx, id, req.Name); {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "holder not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "name": req.Name})
}


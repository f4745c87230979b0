package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
	"github.com/iliyamo/efarm/internal/session"
)

// AuthHandler serves login, registration, logout and the identity
// endpoint.
type AuthHandler struct {
	Auth     *service.AuthService
	Sessions *session.Manager
}

func NewAuthHandler(auth *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{Auth: auth, Sessions: sessions}
}

type credentialsReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"full_name" form:"full_name"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Sessions.Login(c, u); err != nil {
		slog.Error("login: issue session", "err", err)
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": u, "redirect": redirectFor(u)})
}

// Register creates a user account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Sessions.Login(c, u); err != nil {
		slog.Error("register: issue session", "err", err)
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"user": u, "hasSession": true, "redirect": redirectFor(u)})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.Logout(c)
	return ok(c, http.StatusOK, echo.Map{"redirect": "/login"})
}

// Me answers the identity endpoint: 200 {user} or 401 {user:null}.
func (h *AuthHandler) Me(c echo.Context) error {
	u := h.Sessions.GetUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func redirectFor(u session.User) string {
	if u.Role.IsAdmin() {
		return "/admin"
	}
	return "/home"
}

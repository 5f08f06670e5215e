package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pong-social/internal/config"
	"github.com/iliyamo/pong-social/internal/oauth"
	"github.com/iliyamo/pong-social/internal/repository"
	"github.com/iliyamo/pong-social/internal/session"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *session.Store
	Provider *oauth.Provider
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *session.Store, p *oauth.Provider) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Provider: p}
}

// ----- DTOs -----

type registerReq struct {
	Nickname      string `json:"nickname"`
	AvatarImgPath string `json:"avatarImgPath"`
}

type mePart struct {
	ID            uint64 `json:"id"`
	Email         string `json:"email"`
	Nickname      string `json:"nickname"`
	AvatarImgPath string `json:"avatarImgPath,omitempty"`
	LadderPoint   int    `json:"ladderPoint"`
}

// SignIn: hand the client the provider authorization URL with a signed state.
func (h *AuthHandler) SignIn(c echo.Context) error {
	callbackURI := strings.TrimSpace(c.QueryParam("callback_uri"))
	if callbackURI == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "callback_uri required"})
	}
	url, err := h.Provider.AuthorizeURL(callbackURI)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue state failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": url})
}

// Callback: finish the provider round trip. A known email becomes a logged
// in session; an unknown one gets the provisional access token cookie and
// is sent to registration.
func (h *AuthHandler) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	callbackURI := c.QueryParam("callback_uri")
	if code == "" || state == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/state required"})
	}
	if err := h.Provider.VerifyState(state, callbackURI); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid state"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	accessToken, err := h.Provider.Exchange(ctx, code, callbackURI)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider unavailable"})
	}
	email, err := h.Provider.FetchEmail(ctx, accessToken)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider unavailable"})
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// First login: park the access token client-side until the
			// registration form completes the account.
			c.SetCookie(session.NewProvisionalCookie(accessToken))
			return c.JSON(http.StatusOK, echo.Map{"redirect": "register"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	token, err := h.Sessions.Create(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	c.SetCookie(session.NewCookie(token, h.sessionTTL(), h.Cfg.CookieSecure))
	return c.JSON(http.StatusOK, echo.Map{"redirect": "home"})
}

// Register: the provisional cookie proves the OAuth login; the email always
// comes from the provider, never from the request body.
func (h *AuthHandler) Register(c echo.Context) error {
	ck, err := c.Cookie(session.ProvisionalCookieName)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "oauth login required"})
	}

	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	email, err := h.Provider.FetchEmail(ctx, ck.Value)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider unavailable"})
	}

	uid, err := h.Users.Create(ctx, email, req.Nickname, req.AvatarImgPath)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	token, err := h.Sessions.Create(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	c.SetCookie(session.NewCookie(token, h.sessionTTL(), h.Cfg.CookieSecure))
	c.SetCookie(session.ClearProvisionalCookie())
	return c.JSON(http.StatusCreated, echo.Map{"redirect": "home"})
}

// Logout: guarded route; the middleware already validated the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get("session_token").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Destroy(ctx, token); err != nil {
		if errors.Is(err, session.ErrDestroy) {
			// The store refused teardown; the record/pointer pair is still
			// intact (single script). The client is logged out regardless,
			// so clear the cookie and surface the failure.
			c.Logger().Errorf("logout: session destroy failed: %v", err)
			c.SetCookie(session.ClearCookie(h.Cfg.CookieSecure))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		// Already invalid: clearing the cookie is all that is left to do.
	}
	c.SetCookie(session.ClearCookie(h.Cfg.CookieSecure))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, mePart{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      u.Nickname,
		AvatarImgPath: u.AvatarImgPath,
		LadderPoint:   u.LadderPoint,
	})
}

func (h *AuthHandler) sessionTTL() time.Duration {
	return time.Duration(h.Cfg.SessionTTLHours) * time.Hour
}

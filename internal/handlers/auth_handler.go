package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ekinyurt/auth-service/internal/auth"
	"github.com/ekinyurt/auth-service/internal/config"
	"github.com/ekinyurt/auth-service/internal/dto"
	"github.com/ekinyurt/auth-service/internal/oauth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authority *auth.CredentialAuthority
	google    *oauth.GoogleProvider
	cfg       *config.Config
}

func NewAuthHandler(authority *auth.CredentialAuthority, google *oauth.GoogleProvider, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authority: authority, google: google, cfg: cfg}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.authority.Signup(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var verr *auth.ValidationError
		if errors.As(err, &verr) {
			return badRequest(c, verr.Error())
		}
		if errors.Is(err, auth.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "signup", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    dto.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	pair, err := h.authority.Signin(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		if errors.Is(err, auth.ErrWrongPassword) {
			return badRequest(c, "Wrong password")
		}
		return internalError(c, "signin", err)
	}

	h.setSessionCookies(c, pair)
	return c.JSON(dto.TokenResponse{
		Message:      "Signed in successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	h.authority.Signout()
	c.ClearCookie("token", "refreshToken")
	return c.JSON(fiber.Map{"message": "Signed out successfully"})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies("refreshToken")
	}

	pair, err := h.authority.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenInvalid) {
			return unauthorized(c, "Invalid or expired refresh token")
		}
		return internalError(c, "refresh", err)
	}

	h.setSessionCookies(c, pair)
	return c.JSON(dto.TokenResponse{
		Message:      "Token refreshed",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authority.ForgotPassword(c.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrEmailNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false, "message": "E-mail does not exist",
			})
		}
		if errors.Is(err, auth.ErrDeliveryFailed) {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to send email",
			})
		}
		return internalError(c, "forgot-password", err)
	}

	return c.JSON(fiber.Map{
		"success": true, "message": "Reset password link sent to your email",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := h.authority.ResetPassword(c.Context(), c.Params("token"), req.Password)
	if err != nil {
		var verr *auth.ValidationError
		if errors.As(err, &verr) {
			return badRequest(c, verr.Error())
		}
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false, "message": "Invalid or expired token",
			})
		}
		return internalError(c, "reset-password", err)
	}

	return c.JSON(fiber.Map{
		"success": true, "message": "Password has been reset successfully",
	})
}

func (h *AuthHandler) EmailCheck(c *fiber.Ctx) error {
	var req dto.EmailCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	exists, err := h.authority.EmailExists(c.Context(), req.Email)
	if err != nil {
		return internalError(c, "email-check", err)
	}
	return c.JSON(dto.EmailCheckResponse{Exists: exists})
}

// Session verifies a presented access token and returns its subject, for
// callers that need introspection rather than route guarding.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		token = c.Cookies("token")
	}

	session, err := h.authority.VerifySession(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return unauthorized(c, "Token expired")
		}
		return unauthorized(c, "Invalid token")
	}

	return c.JSON(dto.SessionResponse{UserID: session.UserID, ExpiresAt: session.ExpiresAt})
}

// GoogleBegin redirects to the provider's consent page with a short-lived
// state cookie for CSRF protection.
func (h *AuthHandler) GoogleBegin(c *fiber.Ctx) error {
	if !h.google.Enabled() {
		return badRequest(c, "Google sign-in is not configured")
	}

	state := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HTTPOnly: true,
	})

	return c.Redirect(h.google.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return unauthorized(c, "Invalid OAuth state")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return badRequest(c, "Missing authorization code")
	}

	token, err := h.google.Exchange(c.Context(), code)
	if err != nil {
		slog.Error("google code exchange failed", "error", err)
		return unauthorized(c, "Failed to authenticate with Google")
	}

	profile, err := h.google.FetchProfile(c.Context(), token)
	if err != nil {
		slog.Error("google profile fetch failed", "error", err)
		return unauthorized(c, "Failed to authenticate with Google")
	}

	pair, err := h.authority.OAuthCallback(c.Context(), profile, token.AccessToken, token.RefreshToken)
	if err != nil {
		return internalError(c, "oauth-callback", err)
	}

	h.setSessionCookies(c, pair)
	return c.JSON(dto.TokenResponse{
		Message:      "Signed in successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, pair *auth.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    pair.AccessToken,
		Expires:  pair.ExpiresAt,
		HTTPOnly: true,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Expires:  time.Now().Add(h.cfg.JWTRefreshExpiry),
		HTTPOnly: true,
	})
}

func bearerToken(c *fiber.Ctx) string {
	const prefix = "Bearer "
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func internalError(c *fiber.Ctx, action string, err error) error {
	slog.Error("request failed", "action", action, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

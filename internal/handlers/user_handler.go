package handlers

import (
	"errors"

	"github.com/ekinyurt/auth-service/internal/auth"
	"github.com/ekinyurt/auth-service/internal/dto"
	"github.com/ekinyurt/auth-service/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users auth.UserRepository
}

func NewUserHandler(users auth.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user's profile. The route is guarded by the
// JWT middleware, so the claims in context are already verified.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return internalError(c, "me", err)
	}

	return c.JSON(dto.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

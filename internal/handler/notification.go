package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/model-marketplace/internal/repository"
)

// NotificationHandler serves a user's moderation notifications.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

// List handles GET /api/notifications (auth-gated), newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Notifications.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error fetching notifications"})
	}
	return c.JSON(http.StatusOK, out)
}

// Clear handles POST /api/notifications/clear (auth-gated).
func (h *NotificationHandler) Clear(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notifications.ClearForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error clearing notifications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notifications cleared"})
}

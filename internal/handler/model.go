package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/service"
)

// ModelHandler serves the catalog, creator listings, purchases and the
// admin moderation endpoints.
type ModelHandler struct {
	Models     *repository.ModelRepo
	Moderation *service.Moderation
}

func NewModelHandler(models *repository.ModelRepo, moderation *service.Moderation) *ModelHandler {
	return &ModelHandler{Models: models, Moderation: moderation}
}

// ListAll handles GET /api/models: the public catalog with creator and
// purchase buyer usernames populated. All statuses are returned; the
// client filters to approved for display.
func (h *ModelHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	models, err := h.Models.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error fetching models"})
	}
	return c.JSON(http.StatusOK, models)
}

// ListPending handles GET /api/models/pending (admin-gated), newest first.
func (h *ModelHandler) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	models, err := h.Models.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error fetching pending models"})
	}
	return c.JSON(http.StatusOK, models)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/models/status/:modelId (admin-gated).
// "approved" flips the status; "rejected" deletes the model and its file.
func (h *ModelHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "modelId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid model id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	switch req.Status {
	case repository.StatusApproved:
		m, err := h.Moderation.Approve(ctx, id)
		if err != nil {
			if err == repository.ErrModelNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "model not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error updating model status"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message": "model approved successfully",
			"model":   m,
		})
	case "rejected":
		res, err := h.Moderation.Reject(ctx, id)
		if err != nil {
			if err == repository.ErrModelNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "model not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error updating model status"})
		}
		resp := echo.Map{
			"message":      "model rejected and deleted successfully",
			"deletedModel": res.DeletedID,
		}
		if res.Warning {
			resp["warning"] = "model was removed but encountered issues cleaning up"
		}
		return c.JSON(http.StatusOK, resp)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}
}

// Purchase handles POST /api/models/:modelId/purchase (auth-gated).
func (h *ModelHandler) Purchase(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
	}
	id, err := pathID(c, "modelId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid model id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Models.AddPurchase(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrModelNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "model not found"})
		case repository.ErrNotApproved:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "model is not available for purchase"})
		case repository.ErrAlreadyPurchased:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "you have already purchased this model"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error purchasing model"})
		}
	}

	m, err := h.Models.GetDetailed(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error purchasing model"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "purchase successful",
		"model":   m,
	})
}

// ListByCreator handles GET /api/models/creator/:creatorId (auth-gated).
func (h *ModelHandler) ListByCreator(c echo.Context) error {
	creatorID, err := pathID(c, "creatorId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid creator id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	models, err := h.Models.ListByCreator(ctx, creatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error fetching models"})
	}
	return c.JSON(http.StatusOK, models)
}

// Delete handles DELETE /api/models/:modelId (auth-gated, owner-only).
func (h *ModelHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
	}
	id, err := pathID(c, "modelId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid model id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	deletedID, err := h.Moderation.OwnerDelete(ctx, id, uid)
	if err != nil {
		switch err {
		case repository.ErrModelNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "model not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "not authorized to delete this model"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error deleting model"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "model deleted successfully",
		"deletedModel": deletedID,
	})
}

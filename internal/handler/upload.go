package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/service"
	"github.com/iliyamo/model-marketplace/internal/storage"
)

// UploadHandler accepts multipart model uploads from artists. The file
// streams to the asset store before any database write, and the moderation
// service removes it again if the listing record cannot be created.
type UploadHandler struct {
	Assets     *storage.Store
	Moderation *service.Moderation
}

func NewUploadHandler(assets *storage.Store, moderation *service.Moderation) *UploadHandler {
	return &UploadHandler{Assets: assets, Moderation: moderation}
}

// Upload handles POST /api/upload (artist-gated). Metadata is validated
// before the file is persisted so a bad request leaves the storage root
// untouched.
func (h *UploadHandler) Upload(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil || price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "price must be a non-negative number"})
	}
	description := strings.TrimSpace(c.FormValue("description"))

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "no file uploaded"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error uploading file"})
	}
	defer src.Close()

	name, err := h.Assets.Save(src, fh.Filename, fh.Size)
	if err != nil {
		switch err {
		case storage.ErrInvalidExt, storage.ErrTooLarge:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error uploading file"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	m := &repository.Model{
		Title:       title,
		Description: description,
		Price:       price,
		FileURL:     "/uploads/" + name,
		Creator:     repository.UserRef{ID: uid},
	}
	if err := h.Moderation.Submit(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "error uploading file"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "file uploaded successfully",
		"model":   m,
	})
}

package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/service"
	"github.com/iliyamo/model-marketplace/internal/storage"
)

type stubModels struct {
	createErr error
	created   []repository.Model
}

func (s *stubModels) Create(_ context.Context, m *repository.Model) error {
	if s.createErr != nil {
		return s.createErr
	}
	m.ID = 1
	m.Status = repository.StatusPending
	s.created = append(s.created, *m)
	return nil
}
func (s *stubModels) GetWithCreator(context.Context, uint64) (repository.Model, error) {
	return repository.Model{}, repository.ErrModelNotFound
}
func (s *stubModels) Approve(context.Context, uint64) error { return nil }
func (s *stubModels) Delete(context.Context, uint64) error  { return nil }

type stubNotifications struct{}

func (stubNotifications) Append(context.Context, uint64, string, string, string) error { return nil }

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doUpload(t *testing.T, h *UploadHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	require.NoError(t, h.Upload(c))
	return rec
}

func storedFiles(t *testing.T, root string) int {
	t.Helper()
	des, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(des)
}

func newUploadFixture(t *testing.T) (*UploadHandler, *stubModels, string) {
	t.Helper()
	root := t.TempDir()
	models := &stubModels{}
	assets := storage.New(root, 1024)
	mod := service.NewModeration(models, stubNotifications{}, assets, nil)
	return NewUploadHandler(assets, mod), models, root
}

func TestUploadCreatesPendingModel(t *testing.T) {
	h, models, root := newUploadFixture(t)

	body, ct := multipartUpload(t, map[string]string{
		"title": "Cube", "description": "a cube", "price": "5",
	}, "cube.stl", []byte("solid cube"))
	rec := doUpload(t, h, body, ct)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, models.created, 1)
	m := models.created[0]
	assert.Equal(t, "Cube", m.Title)
	assert.Equal(t, 5.0, m.Price)
	assert.Equal(t, uint64(7), m.Creator.ID)
	assert.Contains(t, m.FileURL, "/uploads/")
	assert.Equal(t, 1, storedFiles(t, root), "exactly one file persisted")
}

func TestUploadRejectsWrongExtension(t *testing.T) {
	h, models, root := newUploadFixture(t)

	body, ct := multipartUpload(t, map[string]string{"title": "Cube", "price": "5"},
		"cube.obj", []byte("not stl"))
	rec := doUpload(t, h, body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, models.created)
	assert.Equal(t, 0, storedFiles(t, root), "storage root unchanged on rejection")
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h, _, _ := newUploadFixture(t)

	body, ct := multipartUpload(t, map[string]string{"title": "Cube", "price": "5"}, "", nil)
	rec := doUpload(t, h, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsBadMetadata(t *testing.T) {
	h, _, root := newUploadFixture(t)

	for _, fields := range []map[string]string{
		{"price": "5"},                          // missing title
		{"title": "Cube"},                       // missing price
		{"title": "Cube", "price": "-1"},        // negative price
		{"title": "Cube", "price": "expensive"}, // non-numeric price
	} {
		body, ct := multipartUpload(t, fields, "cube.stl", []byte("solid cube"))
		rec := doUpload(t, h, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Equal(t, 0, storedFiles(t, root), "metadata failures leave no files behind")
}

func TestUploadCleansUpFileWhenRecordCreationFails(t *testing.T) {
	h, models, root := newUploadFixture(t)
	models.createErr = errors.New("insert failed")

	body, ct := multipartUpload(t, map[string]string{"title": "Cube", "price": "5"},
		"cube.stl", []byte("solid cube"))
	rec := doUpload(t, h, body, ct)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, storedFiles(t, root), "no orphan file survives a failed submit")
}

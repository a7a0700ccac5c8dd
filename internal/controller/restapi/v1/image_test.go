package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/response"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/validate"
	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubImages implements only what the handlers call; anything else panics.
type stubImages struct {
	usecase.ImageUseCase

	checkErr error
	body     []byte
	ct       string
	err      error
}

func (s *stubImages) CheckDraftOwner(context.Context, uuid.UUID, uuid.UUID) error {
	return s.checkErr
}

func (s *stubImages) CheckImageOwner(context.Context, uuid.UUID, uuid.UUID) error {
	return s.checkErr
}

func (s *stubImages) DownloadImage(context.Context, uuid.UUID) (io.ReadCloser, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(bytes.NewReader(s.body)), s.ct, nil
}

func (s *stubImages) DownloadThumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	return s.DownloadImage(ctx, id)
}

type stubIngest struct {
	got    []dto.UploadedFile
	result dto.IngestResult
	err    error
	remove error
}

func (s *stubIngest) Ingest(_ context.Context, listingID uuid.UUID, files []dto.UploadedFile) (dto.IngestResult, error) {
	s.got = files
	s.result.ListingID = listingID

	return s.result, s.err
}

func (s *stubIngest) RemoveImage(context.Context, uuid.UUID) error {
	return s.remove
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, validate.FormField, p.name))
		h.Set("Content-Type", p.contentType)

		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func newApp(img *stubImages, ing *stubIngest) *fiber.App {
	app := fiber.New()
	NewImageRoutes(app.Group("/v1"), img, ing, logger.Nop())

	return app
}

func upload(t *testing.T, app *fiber.App, listingID uuid.UUID, user string, parts ...part) *http.Response {
	t.Helper()

	body, contentType := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/v1/listings/"+listingID.String()+"/images", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	if user != "" {
		req.Header.Set(validate.UserIDHeader, user)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestUploadImages(t *testing.T) {
	ing := &stubIngest{result: dto.IngestResult{
		Persisted: 2,
		Failures:  []dto.FileFailure{{Name: "c.png", Reason: "invalid image"}},
	}}
	app := newApp(&stubImages{}, ing)
	listingID := uuid.New()

	resp := upload(t, app, listingID, uuid.NewString(),
		part{"a.jpg", "image/jpeg", []byte("a")},
		part{"b.jpg", "image/jpg", []byte("bb")},
		part{"c.png", "image/png", []byte("ccc")},
	)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got response.Ingest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, listingID.String(), got.ListingID)
	assert.Equal(t, 2, got.Persisted)
	assert.Equal(t, []response.FileFailure{{Name: "c.png", Reason: "invalid image"}}, got.Failures)

	require.Len(t, ing.got, 3)
	assert.Equal(t, "image/jpeg", ing.got[1].ContentType)
	assert.Equal(t, int64(2), ing.got[1].Size)
	assert.Equal(t, []byte("ccc"), ing.got[2].Data)
}

func TestUploadImagesErrors(t *testing.T) {
	jpeg := part{"a.jpg", "image/jpeg", []byte("a")}

	tests := []struct {
		name     string
		checkErr error
		ingErr   error
		user     string
		parts    []part
		want     int
	}{
		{"no user", nil, nil, "", []part{jpeg}, http.StatusUnauthorized},
		{"not owner", errs.ErrForbidden, nil, uuid.NewString(), []part{jpeg}, http.StatusForbidden},
		{"not draft", errs.ErrListingNotDraft, nil, uuid.NewString(), []part{jpeg}, http.StatusForbidden},
		{"listing missing", errs.ErrRecordNotFound, nil, uuid.NewString(), []part{jpeg}, http.StatusNotFound},
		{"no files", nil, nil, uuid.NewString(), nil, http.StatusBadRequest},
		{"pdf", nil, nil, uuid.NewString(), []part{{"a.pdf", "application/pdf", []byte("%PDF")}}, http.StatusUnsupportedMediaType},
		{"bad extension", nil, nil, uuid.NewString(), []part{{"a.exe", "image/png", []byte("x")}}, http.StatusUnsupportedMediaType},
		{"empty file", nil, nil, uuid.NewString(), []part{{"a.jpg", "image/jpeg", nil}}, http.StatusBadRequest},
		{"batch empty", nil, errs.ErrBatchEmpty, uuid.NewString(), []part{jpeg}, http.StatusBadRequest},
		{"timeout", nil, errs.ErrTimeout, uuid.NewString(), []part{jpeg}, http.StatusServiceUnavailable},
		{"persistence", nil, fmt.Errorf("%w: tx", errs.ErrPersistence), uuid.NewString(), []part{jpeg}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubImages{checkErr: tt.checkErr}, &stubIngest{err: tt.ingErr})

			resp := upload(t, app, uuid.New(), tt.user, tt.parts...)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestUploadImagesTooMany(t *testing.T) {
	parts := make([]part, 0, validate.MaxFilesPerUpload+1)
	for i := 0; i <= validate.MaxFilesPerUpload; i++ {
		parts = append(parts, part{fmt.Sprintf("%d.jpg", i), "image/jpeg", []byte("x")})
	}

	ing := &stubIngest{}
	resp := upload(t, newApp(&stubImages{}, ing), uuid.New(), uuid.NewString(), parts...)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, ing.got)
}

func TestUploadImagesBatchEmptyCarriesFailures(t *testing.T) {
	ing := &stubIngest{
		err:    errs.ErrBatchEmpty,
		result: dto.IngestResult{Failures: []dto.FileFailure{{Name: "a.jpg", Reason: "invalid image"}}},
	}

	resp := upload(t, newApp(&stubImages{}, ing), uuid.New(), uuid.NewString(), part{"a.jpg", "image/jpeg", []byte("x")})
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got response.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Failures, 1)
}

func TestGetImage(t *testing.T) {
	app := newApp(&stubImages{body: []byte("jpeg-bytes"), ct: "image/jpeg"}, &stubIngest{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/images/"+uuid.NewString(), nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get(fiber.HeaderContentType))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(b))
}

func TestGetThumbnailNotReady(t *testing.T) {
	app := newApp(&stubImages{err: errs.ErrRecordNotFound}, &stubIngest{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/images/"+uuid.NewString()+"/thumbnail", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetImageInvalidID(t *testing.T) {
	app := newApp(&stubImages{}, &stubIngest{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/images/not-a-uuid", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteImage(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		checkErr error
		err      error
		want     int
	}{
		{"deleted", uuid.NewString(), nil, nil, http.StatusNoContent},
		{"missing", uuid.NewString(), nil, errs.ErrRecordNotFound, http.StatusNotFound},
		{"no user", "", nil, nil, http.StatusUnauthorized},
		{"bad user", "admin", nil, nil, http.StatusUnauthorized},
		{"not owner", uuid.NewString(), errs.ErrForbidden, nil, http.StatusForbidden},
		{"image missing before check", uuid.NewString(), errs.ErrRecordNotFound, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubImages{checkErr: tt.checkErr}, &stubIngest{remove: tt.err})

			req := httptest.NewRequest(http.MethodDelete, "/v1/images/"+uuid.NewString(), nil)
			if tt.user != "" {
				req.Header.Set(validate.UserIDHeader, tt.user)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestDeleteImageForbiddenLeavesImage(t *testing.T) {
	ing := &stubIngest{remove: errors.New("must not be called")}
	app := newApp(&stubImages{checkErr: errs.ErrForbidden}, ing)

	req := httptest.NewRequest(http.MethodDelete, "/v1/images/"+uuid.NewString(), nil)
	req.Header.Set(validate.UserIDHeader, uuid.NewString())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestShowUI(t *testing.T) {
	app := newApp(&stubImages{}, &stubIngest{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMETextHTMLCharsetUTF8, resp.Header.Get(fiber.HeaderContentType))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "up to 20 files, 20 MiB each")
}

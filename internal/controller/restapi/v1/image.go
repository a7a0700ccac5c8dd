package v1

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/response"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/validate"
	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
)

// @Summary  	Upload listing images
// @Description Normalizes every file in parallel and stores the usable ones in one batch
// @Tags 		images
// @Accept 		mpfd
// @Produce 	json
// @Param 		id 	   		path 	 string true "Listing ID(uuid)"
// @Param 		X-User-ID 	header 	 string true "Owner ID(uuid)"
// @Param 		images 		formData file   true "Images(jpg, png, gif, webp)"
// @Success 	201 {object} response.Ingest
// @Failure 	400 {object} response.Error "No files, too many files or no usable file"
// @Failure 	401 {object} response.Error "Missing user"
// @Failure 	403 {object} response.Error "Not owner or listing is not a draft"
// @Failure 	404 {object} response.Error "Listing not found"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Unsupported format"
// @Failure 	500 {object} response.Error "Internal"
// @Failure 	503 {object} response.Error "Timed out"
// @Router 		/v1/listings/{id}/images [post]
func (r *V1) uploadImages(ctx *fiber.Ctx) error {
	listingID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid listing id")
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "multipart form is required")
	}

	headers := form.File[validate.FormField]

	// 1. количество файлов
	if len(headers) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "at least one image is required")
	}

	if len(headers) > validate.MaxFilesPerUpload {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("no more than %d images per upload", validate.MaxFilesPerUpload))
	}

	// 2. валидация и чтение каждого файла
	files := make([]dto.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if code, msg := validateFile(fh); code != 0 {
			return errorResponse(ctx, code, msg)
		}

		data, err := readFile(fh)
		if err != nil {
			r.logger.Error(err, "restapi - v1 - uploadImages")

			return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
		}

		files = append(files, dto.UploadedFile{
			Name:        fh.Filename,
			ContentType: validate.ContentType(fh.Header.Get(fiber.HeaderContentType)),
			Size:        fh.Size,
			Data:        data,
		})
	}

	// 3. загрузка
	res, err := r.ingest.Ingest(ctx.UserContext(), listingID, files)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "listing not found")
		case errors.Is(err, errs.ErrBatchEmpty):
			return ctx.Status(http.StatusBadRequest).JSON(response.Error{
				Error:    errs.ErrBatchEmpty.Error(),
				Failures: res.Failures,
			})
		case errors.Is(err, errs.ErrTimeout):
			return errorResponse(ctx, http.StatusServiceUnavailable, "upload timed out, try again")
		}
		r.logger.Error(err, "restapi - v1 - uploadImages")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	// 4. ответ
	resp := response.Ingest{
		ListingID: res.ListingID.String(),
		Persisted: res.Persisted,
		Failures:  make([]response.FileFailure, 0, len(res.Failures)),
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, response.FileFailure{Name: f.Name, Reason: f.Reason})
	}

	return ctx.Status(http.StatusCreated).JSON(resp)
}

func validateFile(fh *multipart.FileHeader) (int, string) {
	if fh.Size == 0 {
		return http.StatusBadRequest, fmt.Sprintf("file %s is empty", fh.Filename)
	}

	if fh.Size > validate.MaxFileSize {
		return http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file %s is larger than %d bytes", fh.Filename, validate.MaxFileSize)
	}

	if !validate.AllowedContentTypes[fh.Header.Get(fiber.HeaderContentType)] {
		return http.StatusUnsupportedMediaType,
			fmt.Sprintf("file %s: unsupported file type. Allowed: jpeg, png, gif, webp", fh.Filename)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !validate.AllowedExtensions[ext] {
		return http.StatusUnsupportedMediaType,
			fmt.Sprintf("file %s: unsupported file extension. Allowed: .jpg, .jpeg, .png, .gif, .webp", fh.Filename)
	}

	return 0, ""
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("fh.Open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	return data, nil
}

// @Summary 	Get original image
// @Description Downloads the stored listing image
// @Tags 		images
// @Produce 	image/jpeg,image/png,image/gif,image/webp
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/images/{id} [get]
func (r *V1) getImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	body, contentType, err := r.img.DownloadImage(ctx.UserContext(), id)
	if err != nil {
		return r.downloadError(ctx, err, "getImage")
	}

	ctx.Set(fiber.HeaderContentType, contentType)

	return ctx.SendStream(body)
}

// @Summary 	Get thumbnail
// @Description Downloads the listing thumbnail; 404 until it has been produced
// @Tags 		images
// @Produce 	image/jpeg,image/png,image/gif
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Thumbnail not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/images/{id}/thumbnail [get]
func (r *V1) getThumbnail(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	body, contentType, err := r.img.DownloadThumbnail(ctx.UserContext(), id)
	if err != nil {
		return r.downloadError(ctx, err, "getThumbnail")
	}

	ctx.Set(fiber.HeaderContentType, contentType)

	return ctx.SendStream(body)
}

func (r *V1) downloadError(ctx *fiber.Ctx, err error, handler string) error {
	if errors.Is(err, errs.ErrRecordNotFound) {
		return errorResponse(ctx, http.StatusNotFound, "image not found")
	}
	r.logger.Error(err, "restapi - v1 - "+handler)

	return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
}

// @Summary 	Delete image
// @Description Deletes image from all storages(S3, postgres(main table + outbox(cascade))) and refreshes the listing cache
// @Tags 		images
// @Param		id 	path	 string true "Image ID(uuid)"
// @Param 		X-User-ID 	header 	 string true "Owner ID(uuid)"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	401 {object} response.Error "Missing user"
// @Failure 	403 {object} response.Error "Not owner"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/images/{id} [delete]
func (r *V1) deleteImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.ingest.RemoveImage(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - deleteImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problem storage")
	}

	return ctx.SendStatus(http.StatusNoContent)
}

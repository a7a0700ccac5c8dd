package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/validate"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
)

// draftOwner lets the request through only for the owner of a draft listing.
// The user id comes from the gateway in X-User-ID.
func (r *V1) draftOwner(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Get(validate.UserIDHeader))
	if err != nil {
		return errorResponse(ctx, http.StatusUnauthorized, "missing or invalid user id")
	}

	listingID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid listing id")
	}

	err = r.img.CheckDraftOwner(ctx.UserContext(), listingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "listing not found")
		case errors.Is(err, errs.ErrForbidden):
			return errorResponse(ctx, http.StatusForbidden, "not the listing owner")
		case errors.Is(err, errs.ErrListingNotDraft):
			return errorResponse(ctx, http.StatusForbidden, "images can be added only to draft listings")
		}
		r.logger.Error(err, "restapi - v1 - draftOwner")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Next()
}

// imageOwner guards changes to an existing image: only the owner of its listing may pass.
func (r *V1) imageOwner(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Get(validate.UserIDHeader))
	if err != nil {
		return errorResponse(ctx, http.StatusUnauthorized, "missing or invalid user id")
	}

	imageID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.img.CheckImageOwner(ctx.UserContext(), imageID, userID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		case errors.Is(err, errs.ErrForbidden):
			return errorResponse(ctx, http.StatusForbidden, "not the listing owner")
		}
		r.logger.Error(err, "restapi - v1 - imageOwner")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Next()
}

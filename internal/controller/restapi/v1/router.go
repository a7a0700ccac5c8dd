package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

func NewImageRoutes(apiV1Group fiber.Router, img usecase.ImageUseCase, ingest usecase.IngestUseCase, l logger.Interface) {
	r := &V1{img: img, ingest: ingest, logger: l}

	{
		// API
		apiV1Group.Post("/listings/:id/images", r.draftOwner, r.uploadImages)
		apiV1Group.Get("/images/:id", r.getImage)
		apiV1Group.Get("/images/:id/thumbnail", r.getThumbnail)
		apiV1Group.Delete("/images/:id", r.imageOwner, r.deleteImage)

		// UI
		apiV1Group.Get("/", r.showUI)
	}
}

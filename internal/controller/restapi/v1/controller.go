package v1

import (
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

type V1 struct {
	img    usecase.ImageUseCase
	ingest usecase.IngestUseCase
	logger logger.Interface
}

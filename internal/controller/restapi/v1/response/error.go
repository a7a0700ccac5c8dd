package response

import "github.com/murtazox04/kelishamiz-backend/internal/dto"

type Error struct {
	Error    string            `json:"error" example:"message"`
	Failures []dto.FileFailure `json:"failures,omitempty"`
}

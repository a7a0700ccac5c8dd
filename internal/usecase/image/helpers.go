package image

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
)

func (uc *ImageUseCase) createOutboxEvents(images []*entity.ListingImage) ([]*entity.OutboxEvent, error) {
	events := make([]*entity.OutboxEvent, 0, len(images))
	now := time.Now()

	for _, image := range images {
		b, err := json.Marshal(dto.ImageIngestedPayload{
			ID:          image.ID,
			ListingID:   image.ListingID,
			ObjectKey:   image.ObjectKey,
			ContentType: image.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("ImageUseCase - createOutboxEvents - json.Marshal: %w", err)
		}

		events = append(events, &entity.OutboxEvent{
			ID:          uuid.New(),
			AggregateID: image.ID,
			Type:        entity.EventImageIngested,
			Payload:     b,
			Status:      entity.Pending,
			CreatedAt:   now,
		})
	}

	return events, nil
}

func eventIDs(events []*entity.OutboxEvent) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(events))

	for _, event := range events {
		IDs = append(IDs, event.ID)
	}

	return IDs
}

package services

import (
	"context"
	"testlab/internal/events"
	"testlab/internal/logger"
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate = "create"
	ActionDelete = "delete"
)

type CacheInvalidationService struct {
	eventBus *events.EventBus
	log      logger.Logger
}

func NewCacheInvalidationService(
	eventBus *events.EventBus,
) *CacheInvalidationService {
	return &CacheInvalidationService{
		eventBus: eventBus,
		log:      logger.New("CacheInvalidationService"),
	}
}

// InvalidateCollection tells listeners that collection moved to version.
// It runs after commit; a failure here never undoes the mutation.
func (s *CacheInvalidationService) InvalidateCollection(
	ctx context.Context,
	collection string,
	version int64,
	action string,
	recordID string,
	actor string,
) error {
	log := s.log.Function("InvalidateCollection")

	event := events.Event{
		ID:     uuid.NewString(),
		Type:   events.TypeInvalidate,
		Action: action,
		UserID: actor,
		Data: map[string]any{
			"collection": collection,
			"version":    version,
			"id":         recordID,
		},
		Timestamp: time.Now(),
	}

	if err := s.eventBus.Publish(events.ChannelInvalidation, event); err != nil {
		return log.Err("failed to publish invalidation", err, "collection", collection)
	}

	log.Debug("published invalidation", "collection", collection, "version", version, "action", action)
	return nil
}

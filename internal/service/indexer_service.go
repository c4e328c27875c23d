package service

import (
	"context"
	"encoding/json"
	"time"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IIndexerService interface {
	Consume(ctx context.Context) error
}

// indexerService embeds finalized exercises into the document store so
// later sessions can retrieve them. It runs off the request path: an
// embedding outage delays indexing but never blocks a workflow.
type indexerService struct {
	bus   *events.Bus
	index contract.ExerciseIndexRepository
	log   logger.ILogger
}

func NewIndexerService(bus *events.Bus, index contract.ExerciseIndexRepository, log logger.ILogger) IIndexerService {
	return &indexerService{
		bus:   bus,
		index: index,
		log:   log,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.bus.Subscribe(ctx, events.TopicExerciseFinalized)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var ev events.FinalizedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		s.log.Error("Indexer", "Failed to unmarshal finalized event", map[string]interface{}{"error": err.Error()})
		// Ack malformed messages to prevent infinite retry.
		msg.Ack()
		return
	}

	if ev.OriginalRequest == "" {
		s.log.Warn("Indexer", "Finalized exercise has no request text, skipping", map[string]interface{}{"thread_id": ev.ThreadID})
		msg.Ack()
		return
	}

	err := s.index.Index(ctx, entity.IndexedExercise{
		ID:              ev.ThreadID,
		Draft:           ev.Draft,
		OriginalRequest: ev.OriginalRequest,
		Metadata:        ev.Metadata,
		IndexedAt:       time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("Indexer", "Failed to index exercise", map[string]interface{}{
			"thread_id": ev.ThreadID,
			"error":     err.Error(),
		})
		// Nack for retry; the index may come back.
		msg.Nack()
		return
	}

	s.log.Info("Indexer", "Exercise indexed", map[string]interface{}{
		"thread_id": ev.ThreadID,
		"title":     ev.Draft.Title,
	})
	msg.Ack()
}

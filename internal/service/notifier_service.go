package service

import (
	"context"
	"encoding/json"
	"fmt"

	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/pkg/mailer"
	"clarity-cbt-be/internal/websocket"
	"clarity-cbt-be/pkg/events"
	pkgNats "clarity-cbt-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

type INotifierService interface {
	Consume(ctx context.Context) error
}

// notifierService fans workflow events out to the channels that watch
// them: websocket observers, the external NATS bus, and email for the
// human-review handoff. All deliveries are best effort.
type notifierService struct {
	bus            *events.Bus
	hub            *websocket.Hub
	natsPub        *pkgNats.Publisher
	emailService   mailer.IEmailService
	clinicianEmail string
	log            logger.ILogger
}

func NewNotifierService(
	bus *events.Bus,
	hub *websocket.Hub,
	natsPub *pkgNats.Publisher,
	emailService mailer.IEmailService,
	clinicianEmail string,
	log logger.ILogger,
) INotifierService {
	return &notifierService{
		bus:            bus,
		hub:            hub,
		natsPub:        natsPub,
		emailService:   emailService,
		clinicianEmail: clinicianEmail,
		log:            log,
	}
}

func (s *notifierService) Consume(ctx context.Context) error {
	stageMessages, err := s.bus.Subscribe(ctx, events.TopicWorkflowEvents)
	if err != nil {
		return err
	}
	finalizedMessages, err := s.bus.Subscribe(ctx, events.TopicExerciseFinalized)
	if err != nil {
		return err
	}

	go func() {
		for msg := range stageMessages {
			s.processStageMessage(ctx, msg)
		}
	}()
	go func() {
		for msg := range finalizedMessages {
			s.processFinalizedMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *notifierService) processStageMessage(ctx context.Context, msg *message.Message) {
	var ev events.StageEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		s.log.Error("Notifier", "Failed to unmarshal stage event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if s.hub != nil {
		s.hub.Notify(ev)
	}

	if s.natsPub != nil {
		subject := fmt.Sprintf("clarity.workflow.%s", ev.Type)
		if err := s.natsPub.Publish(ctx, subject, ev); err != nil {
			s.log.Warn("Notifier", "NATS republish failed", map[string]interface{}{
				"thread_id": ev.ThreadID,
				"error":     err.Error(),
			})
		}
	}

	msg.Ack()
}

func (s *notifierService) processFinalizedMessage(ctx context.Context, msg *message.Message) {
	var ev events.FinalizedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		s.log.Error("Notifier", "Failed to unmarshal finalized event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, "clarity.exercise.finalized", ev); err != nil {
			s.log.Warn("Notifier", "NATS republish failed", map[string]interface{}{
				"thread_id": ev.ThreadID,
				"error":     err.Error(),
			})
		}
	}

	if s.emailService != nil && s.clinicianEmail != "" {
		if err := s.emailService.SendReviewRequest(s.clinicianEmail, ev.ThreadID, ev.Draft); err != nil {
			s.log.Warn("Notifier", "Review request email failed", map[string]interface{}{
				"thread_id": ev.ThreadID,
				"error":     err.Error(),
			})
		}
	}

	msg.Ack()
}

package foundry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/events"
	"clarity-cbt-be/pkg/oracle"
)

// Engine drives the review workflow for all sessions. One engine is
// shared process-wide; it is constructed once at startup with its
// collaborators passed in explicitly.
//
// Concurrency model: all work for a given thread id runs under that
// thread's mutex, so a session never executes two stages at once and
// concurrent requests against the same thread are serialized. Distinct
// sessions share nothing but the exercise index, which handles its own
// concurrency.
type Engine struct {
	sessions contract.SessionRepository
	index    contract.ExerciseIndexRepository
	oracle   oracle.Gateway
	gate     *RetrievalGate
	pub      Publisher
	log      logger.ILogger

	locks sync.Map // thread id -> *sync.Mutex
}

func NewEngine(
	sessions contract.SessionRepository,
	index contract.ExerciseIndexRepository,
	gw oracle.Gateway,
	pub Publisher,
	log logger.ILogger,
) *Engine {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Engine{
		sessions: sessions,
		index:    index,
		oracle:   gw,
		gate:     NewRetrievalGate(gw, index, log),
		pub:      pub,
		log:      log,
	}
}

func (e *Engine) lock(threadID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Run processes one inbound message and returns a stream of
// state-transition events, terminated by a complete or error event.
// The session is created on first use. If the caller abandons the
// stream or cancels ctx, the session is left in its last fully
// committed state.
func (e *Engine) Run(ctx context.Context, threadID, message string) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)

		mu := e.lock(threadID)
		mu.Lock()
		defer mu.Unlock()

		sess, err := e.sessions.Get(ctx, threadID)
		if err != nil {
			e.fail(ctx, out, threadID, err)
			return
		}
		if sess == nil {
			sess = entity.NewSession(threadID)
		}

		// Gate step: record the message and classify it. Committed as
		// one unit; an oracle failure here leaves the session untouched.
		work := sess.Clone()
		work.AppendMessage(entity.MessageRoleUser, message)
		route, err := e.gate.Classify(ctx, work, message)
		if err != nil {
			e.fail(ctx, out, threadID, err)
			return
		}
		if err := e.commit(ctx, &sess, work); err != nil {
			e.fail(ctx, out, threadID, err)
			return
		}
		e.emit(ctx, out, threadID, Event{
			Type:    EventTypeMemory,
			Node:    "memory_gate",
			Payload: memoryPayload(sess.MemoryResult),
		})

		switch route {
		case RouteChat:
			e.runChat(ctx, out, threadID, &sess)

		case RouteFound:
			// The memory event already carries the retrieved exercise.
			e.emit(ctx, out, threadID, Event{Type: EventTypeComplete})

		case RoutePipeline:
			e.runPipeline(ctx, out, threadID, &sess)
		}
	}()
	return out
}

func (e *Engine) runChat(ctx context.Context, out chan<- Event, threadID string, sess **entity.Session) {
	work := (*sess).Clone()
	reply, err := e.oracle.Chat(ctx, work.Messages)
	if err != nil {
		e.fail(ctx, out, threadID, err)
		return
	}
	work.AppendMessage(entity.MessageRoleAssistant, reply)
	if err := e.commit(ctx, sess, work); err != nil {
		e.fail(ctx, out, threadID, err)
		return
	}
	e.emit(ctx, out, threadID, Event{
		Type:    EventTypeChat,
		Node:    "chat",
		Payload: map[string]interface{}{"reply": reply},
	})
	e.emit(ctx, out, threadID, Event{Type: EventTypeComplete})
}

func (e *Engine) runPipeline(ctx context.Context, out chan<- Event, threadID string, sess **entity.Session) {
	for {
		if err := ctx.Err(); err != nil {
			e.fail(ctx, out, threadID, err)
			return
		}

		role := NextRole(*sess)
		if role == entity.RoleHumanReview {
			e.emit(ctx, out, threadID, Event{
				Type: EventTypeStage,
				Node: entity.RoleHumanReview,
				Payload: map[string]interface{}{
					"total_revisions": (*sess).Metadata.TotalRevisions,
				},
			})
			e.publishFinalized(*sess)
			break
		}

		work := (*sess).Clone()
		var payload map[string]interface{}
		var err error
		if role == entity.RoleDrafter {
			payload, err = e.runDrafter(ctx, work)
		} else {
			payload, err = e.runReview(ctx, work, role)
		}
		if err != nil {
			// Abort this step only; the last committed state stands.
			e.fail(ctx, out, threadID, err)
			return
		}
		if err := e.commit(ctx, sess, work); err != nil {
			e.fail(ctx, out, threadID, err)
			return
		}
		e.emit(ctx, out, threadID, Event{Type: EventTypeStage, Node: role, Payload: payload})
	}

	e.emit(ctx, out, threadID, Event{Type: EventTypeComplete})
}

// Snapshot returns the full current state of a thread.
func (e *Engine) Snapshot(ctx context.Context, threadID string) (*entity.Session, error) {
	sess, err := e.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, threadID)
	}
	return sess, nil
}

// Approve finalizes the active exercise. Edited content, when supplied,
// replaces the draft content in place; it does not append a version.
func (e *Engine) Approve(ctx context.Context, threadID, editedContent string) (*entity.Session, error) {
	mu := e.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := e.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, threadID)
	}

	if editedContent != "" {
		if sess.CurrentDraft == nil {
			return nil, fmt.Errorf("%w: no draft to edit", ErrInvalidTransition)
		}
		work := sess.Clone()
		work.CurrentDraft.Content = editedContent
		if err := e.commit(ctx, &sess, work); err != nil {
			return nil, err
		}
	}

	e.publishFinalized(sess)
	return sess, nil
}

// SaveDraft installs a draft as the session's active exercise without
// advancing the pipeline, and re-indexes it for future retrieval. An
// index failure is reported as a warning, not an error: the save itself
// succeeded.
func (e *Engine) SaveDraft(ctx context.Context, threadID string, draft entity.ExerciseDraft, originalRequest string) (*entity.Session, string, error) {
	mu := e.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := e.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, "", err
	}
	if sess == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrSessionNotFound, threadID)
	}

	work := sess.Clone()
	work.CurrentDraft = &draft
	if err := e.commit(ctx, &sess, work); err != nil {
		return nil, "", err
	}

	if originalRequest == "" {
		originalRequest = sess.OriginalRequest()
	}

	var warning string
	if originalRequest != "" && e.index != nil {
		err := e.index.Index(ctx, entity.IndexedExercise{
			ID:              sess.ThreadID,
			Draft:           draft,
			OriginalRequest: originalRequest,
			Metadata:        sess.Metadata,
			IndexedAt:       time.Now().UTC(),
		})
		if err != nil {
			warning = fmt.Sprintf("draft saved but re-indexing failed: %v", err)
			e.log.Warn("Engine", "Re-indexing saved draft failed", map[string]interface{}{
				"thread_id": threadID,
				"error":     err.Error(),
			})
		}
	}

	return sess, warning, nil
}

// commit persists the mutated copy and swaps it in. On failure the
// previous state stays current.
func (e *Engine) commit(ctx context.Context, sess **entity.Session, work *entity.Session) error {
	work.UpdatedAt = time.Now().UTC()
	if err := e.sessions.Save(ctx, work); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", work.ThreadID, err)
	}
	*sess = work
	return nil
}

func (e *Engine) emit(ctx context.Context, out chan<- Event, threadID string, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}

	if e.pub != nil {
		err := e.pub.Publish(events.TopicWorkflowEvents, events.StageEvent{
			ThreadID:   threadID,
			Type:       ev.Type,
			Node:       ev.Node,
			Payload:    ev.Payload,
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			e.log.Warn("Engine", "Failed to publish stage event", map[string]interface{}{
				"thread_id": threadID,
				"error":     err.Error(),
			})
		}
	}
}

func (e *Engine) fail(ctx context.Context, out chan<- Event, threadID string, err error) {
	e.log.Error("Engine", "Workflow step failed", map[string]interface{}{
		"thread_id": threadID,
		"error":     err.Error(),
	})
	e.emit(ctx, out, threadID, Event{Type: EventTypeError, Error: err.Error()})
}

func (e *Engine) publishFinalized(sess *entity.Session) {
	if e.pub == nil || sess.CurrentDraft == nil {
		return
	}
	err := e.pub.Publish(events.TopicExerciseFinalized, events.FinalizedEvent{
		ThreadID:        sess.ThreadID,
		Draft:           *sess.CurrentDraft,
		OriginalRequest: sess.OriginalRequest(),
		Metadata:        sess.Metadata,
	})
	if err != nil {
		e.log.Warn("Engine", "Failed to publish finalized exercise", map[string]interface{}{
			"thread_id": sess.ThreadID,
			"error":     err.Error(),
		})
	}
}

func memoryPayload(mr *entity.MemoryResult) map[string]interface{} {
	if mr == nil {
		return nil
	}
	payload := map[string]interface{}{
		"intent": mr.Intent,
		"found":  mr.Found,
	}
	if mr.Query != "" {
		payload["query"] = mr.Query
	}
	if mr.Found && mr.Draft != nil {
		payload["title"] = mr.Draft.Title
		payload["confidence"] = mr.Confidence
		payload["original_request"] = mr.OriginalRequest
	}
	if mr.Reasoning != "" {
		payload["reasoning"] = mr.Reasoning
	}
	return payload
}

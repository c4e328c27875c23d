package foundry

import (
	"context"
	"fmt"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/pkg/foundry/topics"
	"clarity-cbt-be/pkg/oracle"
)

// Retrieval parameters. Topic overlap is a hard gate, not a ranking
// signal: returning an exercise about the wrong subject is a worse
// failure than returning nothing. Topic-blind matches (query with no
// recognizable topics) must be near-exact.
const (
	searchLimit     = 5
	similarityFloor = 0.75
	topicBlindFloor = 0.85
)

// Route is the gate's verdict on what should handle the message next.
type Route int

const (
	// RouteChat: plain conversation, no pipeline.
	RouteChat Route = iota
	// RoutePipeline: enter or continue the review pipeline.
	RoutePipeline
	// RouteFound: a previously generated exercise was retrieved; the
	// pipeline does not run.
	RouteFound
)

// RetrievalGate classifies inbound messages and, for retrieve intents,
// resolves them to zero or one indexed exercise.
type RetrievalGate struct {
	oracle oracle.Gateway
	index  contract.ExerciseIndexRepository
	log    logger.ILogger
}

func NewRetrievalGate(gw oracle.Gateway, index contract.ExerciseIndexRepository, log logger.ILogger) *RetrievalGate {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &RetrievalGate{oracle: gw, index: index, log: log}
}

// Classify mutates the session copy it is given: it records the
// MemoryResult, resets state on create_new, and installs the matched
// draft on a retrieval hit. An oracle failure aborts the request;
// an index failure does not.
func (g *RetrievalGate) Classify(ctx context.Context, s *entity.Session, message string) (Route, error) {
	cls, err := g.oracle.ClassifyIntent(ctx, message, s.CurrentDraft != nil)
	if err != nil {
		return RoutePipeline, err
	}

	switch cls.Intent {
	case oracle.IntentChat:
		s.MemoryResult = &entity.MemoryResult{
			Intent:    cls.Intent,
			Reasoning: cls.Reasoning,
		}
		return RouteChat, nil

	case oracle.IntentModifyExisting:
		s.MemoryResult = &entity.MemoryResult{
			Intent:    cls.Intent,
			Reasoning: cls.Reasoning,
		}
		return RoutePipeline, nil

	case oracle.IntentCreateNew:
		if s.CurrentDraft != nil {
			// A new subject must never inherit stale review history.
			g.log.Info("RetrievalGate", "Resetting session for new exercise", map[string]interface{}{
				"thread_id": s.ThreadID,
			})
			s.Reset()
		}
		s.MemoryResult = &entity.MemoryResult{
			Intent:    cls.Intent,
			Reasoning: cls.Reasoning,
		}
		return RoutePipeline, nil

	case oracle.IntentRetrieve:
		return g.retrieve(ctx, s, message, cls)
	}

	// The oracle gateway validates intents, so this is unreachable for
	// well-behaved gateways; treat anything odd as plain chat.
	s.MemoryResult = &entity.MemoryResult{Intent: cls.Intent, Reasoning: cls.Reasoning}
	return RouteChat, nil
}

func (g *RetrievalGate) retrieve(ctx context.Context, s *entity.Session, message string, cls *oracle.IntentClassification) (Route, error) {
	query := cls.Query
	if query == "" {
		query = message
	}

	result := &entity.MemoryResult{
		Intent: cls.Intent,
		Query:  query,
	}
	s.MemoryResult = result

	queryTopics := topics.Union(topics.Extract(message), topics.Extract(query))

	hits, err := g.index.Search(ctx, query, searchLimit, similarityFloor)
	if err != nil {
		// Non-fatal: surface in the result and let the pipeline create
		// a fresh exercise instead of failing the request.
		g.log.Warn("RetrievalGate", "Index search failed, falling through to creation", map[string]interface{}{
			"thread_id": s.ThreadID,
			"error":     err.Error(),
		})
		result.Found = false
		result.Reasoning = fmt.Sprintf("index search failed (%v); treating request as a new exercise", err)
		return RoutePipeline, nil
	}

	for _, hit := range hits {
		draftTopics := topics.Extract(hit.Exercise.OriginalRequest + " " + hit.Exercise.Draft.Title)

		if len(queryTopics) > 0 {
			// Hard exclusion: a candidate about another subject is
			// skipped no matter how similar the embedding thinks it is.
			if !topics.Overlaps(queryTopics, draftTopics) {
				continue
			}
		} else if hit.Similarity <= topicBlindFloor {
			continue
		}

		draft := hit.Exercise.Draft
		result.Found = true
		result.Draft = &draft
		result.Confidence = hit.Similarity
		result.OriginalRequest = hit.Exercise.OriginalRequest
		result.Reasoning = cls.Reasoning
		s.CurrentDraft = &draft

		g.log.Info("RetrievalGate", "Retrieved exercise", map[string]interface{}{
			"thread_id":  s.ThreadID,
			"title":      draft.Title,
			"similarity": hit.Similarity,
		})
		return RouteFound, nil
	}

	result.Found = false
	if len(hits) == 0 {
		result.Reasoning = "no indexed exercise above the similarity floor"
	} else {
		result.Reasoning = "candidates found but none shared a topic with the request"
	}
	return RoutePipeline, nil
}

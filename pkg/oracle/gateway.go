package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/pkg/llm"
)

// llmGateway implements Gateway on top of a generic LLM provider.
// Every schema is a prompt that demands strict JSON; anything the model
// returns that cannot be coerced into the schema is a hard
// ErrSchemaViolation, not something to paper over.
type llmGateway struct {
	provider llm.LLMProvider
}

func NewGateway(provider llm.LLMProvider) Gateway {
	return &llmGateway{provider: provider}
}

func (g *llmGateway) ClassifyIntent(ctx context.Context, message string, hasActiveDraft bool) (*IntentClassification, error) {
	var sb strings.Builder
	sb.WriteString(intentPrompt)
	sb.WriteString("\n\n")
	if hasActiveDraft {
		sb.WriteString("Context: an exercise is already in progress on this thread.\n\n")
	}
	sb.WriteString(fmt.Sprintf("User message: %q\n\nClassify the intent.", message))

	raw, err := g.provider.Generate(ctx, sb.String(), llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var result IntentClassification
	if err := decodeSchema(raw, &result); err != nil {
		return nil, err
	}

	result.Intent = strings.ToLower(strings.TrimSpace(result.Intent))
	switch result.Intent {
	case IntentRetrieve, IntentCreateNew, IntentModifyExisting, IntentChat:
	default:
		return nil, fmt.Errorf("%w: unknown intent %q", ErrSchemaViolation, result.Intent)
	}
	return &result, nil
}

func (g *llmGateway) Draft(ctx context.Context, req DraftRequest) (*entity.ExerciseDraft, error) {
	history := []llm.Message{
		{Role: "system", Content: drafterPrompt},
		{Role: "user", Content: req.Request},
	}

	if revision := buildRevisionContext(req); revision != "" {
		history = append(history, llm.Message{
			Role:    "user",
			Content: "Please revise the draft based on this feedback:" + revision,
		})
	}

	raw, err := g.provider.Chat(ctx, history, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var draft entity.ExerciseDraft
	if err := decodeSchema(raw, &draft); err != nil {
		return nil, err
	}
	if draft.Title == "" || draft.Content == "" {
		return nil, fmt.Errorf("%w: draft missing title or content", ErrSchemaViolation)
	}
	return &draft, nil
}

func (g *llmGateway) Critique(ctx context.Context, role string, draft entity.ExerciseDraft, versionNumber int) (*CritiqueResult, error) {
	var system string
	switch role {
	case entity.RoleSafetyGuardian:
		system = safetyPrompt
	case entity.RoleClinicalCritic:
		system = clinicalPrompt
	default:
		return nil, fmt.Errorf("%w: no critique schema for role %q", ErrSchemaViolation, role)
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	history := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf("Reviewing draft v%d\n\nDraft to review:\n%s", versionNumber, draftJSON)},
	}

	raw, err := g.provider.Chat(ctx, history, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var result CritiqueResult
	if err := decodeSchema(raw, &result); err != nil {
		return nil, err
	}
	if result.Content == "" {
		return nil, fmt.Errorf("%w: critique missing content", ErrSchemaViolation)
	}
	return &result, nil
}

func (g *llmGateway) Chat(ctx context.Context, history []entity.ChatMessage) (string, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: chatPrompt})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := g.provider.Chat(ctx, messages, llm.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty chat reply", ErrSchemaViolation)
	}
	return reply, nil
}

// buildRevisionContext assembles the feedback block the drafter revises
// against: the two most recent critiques, up to three reviewer notes,
// and the previous version's change notes.
func buildRevisionContext(req DraftRequest) string {
	var sb strings.Builder

	if len(req.RecentCritiques) > 0 {
		sb.WriteString("\n\nRecent Critiques to Address:\n")
		for _, c := range req.RecentCritiques {
			verdict := "Rejected"
			if c.Approved {
				verdict = "Approved"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", c.Author, verdict, c.Content))
		}
	}

	if len(req.ReviewerNotes) > 0 {
		sb.WriteString("\n\nScratchpad Notes from Reviewers:\n")
		for _, n := range req.ReviewerNotes {
			sb.WriteString(fmt.Sprintf("- [%s] (%s): %s\n", n.Author, n.Priority, n.Content))
		}
	}

	if req.PreviousNotes != "" {
		sb.WriteString(fmt.Sprintf("\n\nPrevious Version (v%d): %s\n", req.VersionNumber-1, req.PreviousNotes))
	}

	return sb.String()
}

// decodeSchema extracts the first JSON object from a model response and
// unmarshals it into the requested shape.
func decodeSchema(raw string, out interface{}) error {
	jsonContent := extractJSON(raw)
	if jsonContent == "" {
		return fmt.Errorf("%w: no JSON found in response", ErrSchemaViolation)
	}
	if err := json.Unmarshal([]byte(jsonContent), out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// extractJSON tolerates markdown fences and prose around the object;
// models wrap JSON in both, constantly.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

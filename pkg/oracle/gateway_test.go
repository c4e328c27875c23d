package oracle

import (
	"context"
	"errors"
	"testing"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedLLM replies with a fixed string to every call.
type cannedLLM struct {
	reply string
	err   error

	lastChat     []llm.Message
	lastGenerate string
}

func (c *cannedLLM) Chat(_ context.Context, messages []llm.Message, _ ...llm.Option) (string, error) {
	c.lastChat = messages
	return c.reply, c.err
}

func (c *cannedLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	c.lastGenerate = prompt
	return c.reply, c.err
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "markdown fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "prose around the object",
			in:   `Sure! Here is the JSON: {"a":{"b":2}} hope that helps`,
			want: `{"a":{"b":2}}`,
		},
		{
			name: "braces inside strings",
			in:   `{"content":"use {curly} braces and a \" quote"}`,
			want: `{"content":"use {curly} braces and a \" quote"}`,
		},
		{
			name: "no object at all",
			in:   "I cannot answer that.",
			want: "",
		},
		{
			name: "unterminated object",
			in:   `{"a": 1`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestClassifyIntent(t *testing.T) {
	gw := NewGateway(&cannedLLM{reply: `{"intent":"RETRIEVE","query":"anxiety exercise","confidence":0.9,"reasoning":"asks for an earlier exercise"}`})

	got, err := gw.ClassifyIntent(context.Background(), "show me that anxiety one", false)
	require.NoError(t, err)
	// Intent is normalized to lower case.
	assert.Equal(t, IntentRetrieve, got.Intent)
	assert.Equal(t, "anxiety exercise", got.Query)
}

func TestClassifyIntentRejectsUnknownIntent(t *testing.T) {
	gw := NewGateway(&cannedLLM{reply: `{"intent":"summarize","confidence":0.9}`})

	_, err := gw.ClassifyIntent(context.Background(), "hi", false)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestDraftSchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no JSON", "here you go, a nice exercise"},
		{"missing title", `{"instructions":"1.","content":"c"}`},
		{"missing content", `{"title":"T","instructions":"1."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewGateway(&cannedLLM{reply: tt.reply})
			_, err := gw.Draft(context.Background(), DraftRequest{Request: "help", VersionNumber: 1})
			assert.ErrorIs(t, err, ErrSchemaViolation)
		})
	}
}

func TestDraftTransportFailure(t *testing.T) {
	gw := NewGateway(&cannedLLM{err: errors.New("connection refused")})

	_, err := gw.Draft(context.Background(), DraftRequest{Request: "help", VersionNumber: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDraftIncludesRevisionContext(t *testing.T) {
	provider := &cannedLLM{reply: `{"title":"T","instructions":"1.","content":"c"}`}
	gw := NewGateway(provider)

	_, err := gw.Draft(context.Background(), DraftRequest{
		Request: "help with anxiety",
		RecentCritiques: []entity.Critique{
			{Author: entity.RoleSafetyGuardian, Approved: false, Content: "too alarming"},
		},
		ReviewerNotes: []entity.AgentNote{
			{Author: entity.RoleSafetyGuardian, Priority: entity.PriorityCritical, Content: "rephrase step 2"},
		},
		PreviousNotes: "Initial draft",
		VersionNumber: 2,
	})
	require.NoError(t, err)

	require.Len(t, provider.lastChat, 3)
	revision := provider.lastChat[2].Content
	assert.Contains(t, revision, "too alarming")
	assert.Contains(t, revision, "rephrase step 2")
	assert.Contains(t, revision, "Previous Version (v1)")
}

func TestDraftFirstVersionHasNoRevisionBlock(t *testing.T) {
	provider := &cannedLLM{reply: `{"title":"T","instructions":"1.","content":"c"}`}
	gw := NewGateway(provider)

	_, err := gw.Draft(context.Background(), DraftRequest{Request: "help", VersionNumber: 1})
	require.NoError(t, err)
	assert.Len(t, provider.lastChat, 2)
}

func TestCritiqueRoleSelectsSchema(t *testing.T) {
	provider := &cannedLLM{reply: `{"approved":true,"content":"fine"}`}
	gw := NewGateway(provider)
	draft := entity.ExerciseDraft{Title: "T", Instructions: "1.", Content: "c"}

	got, err := gw.Critique(context.Background(), entity.RoleSafetyGuardian, draft, 1)
	require.NoError(t, err)
	assert.True(t, got.Approved)

	_, err = gw.Critique(context.Background(), "unknown_role", draft, 1)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestChatEmptyReplyIsSchemaViolation(t *testing.T) {
	gw := NewGateway(&cannedLLM{reply: "   "})

	_, err := gw.Chat(context.Background(), []entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

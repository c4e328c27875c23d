package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"

	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/repository/memory"
	"clarity-cbt-be/pkg/embedding"
	"clarity-cbt-be/pkg/foundry"
	"clarity-cbt-be/pkg/oracle"

	"github.com/fatih/color"
)

// simulate runs the review pipeline end to end against a scripted
// oracle: no model backend, no database, fully deterministic. Useful
// for demoing the supervisor's routing and for eyeballing event
// payloads.
func main() {
	script := &oracle.ScriptedOracle{
		Intents: []oracle.IntentClassification{
			{Intent: oracle.IntentCreateNew, Confidence: 0.95, Reasoning: "user asks for a new exercise"},
		},
		Drafts: []entity.ExerciseDraft{
			{
				Title:        "Managing Interview Anxiety",
				Instructions: "1. Find a quiet space.\n2. Work through each prompt in order.",
				Content:      "### Thought Record\nWrite down the anxious thought and the evidence for and against it.",
			},
			{
				Title:        "Managing Interview Anxiety",
				Instructions: "1. Find a quiet space.\n2. Work through each prompt in order.",
				Content:      "### Thought Record\nNotice the anxious thought. It is okay to feel this way. Then gently list the evidence for and against it.",
			},
		},
		Critiques: []oracle.CritiqueResult{
			{Approved: true, Content: "No crisis language, no medical claims."},
			{Approved: false, Content: "Tone is too clinical; add validation before the exercise steps."},
			{Approved: true, Content: "Safe after revision."},
			{Approved: true, Content: "Empathetic and clearly structured."},
		},
	}

	index, err := memory.NewExerciseIndexRepository("", hashEmbedder{})
	if err != nil {
		log.Fatalf("index init: %v", err)
	}

	engine := foundry.NewEngine(
		memory.NewSessionRepository(),
		index,
		script,
		nil,
		logger.NewNoopLogger(),
	)

	bold := color.New(color.Bold)
	stageColor := map[string]*color.Color{
		entity.RoleDrafter:        color.New(color.FgCyan),
		entity.RoleSafetyGuardian: color.New(color.FgYellow),
		entity.RoleClinicalCritic: color.New(color.FgMagenta),
		entity.RoleHumanReview:    color.New(color.FgGreen),
	}

	bold.Println("== Clarity workflow simulation ==")
	fmt.Println("User: I'm anxious about my upcoming job interview")
	fmt.Println()

	ctx := context.Background()
	for ev := range engine.Run(ctx, "sim-thread", "I'm anxious about my upcoming job interview") {
		switch ev.Type {
		case foundry.EventTypeMemory:
			color.Blue("[memory_gate] %v", ev.Payload)
		case foundry.EventTypeStage:
			c := stageColor[ev.Node]
			if c == nil {
				c = color.New(color.FgWhite)
			}
			c.Printf("[%s] ", ev.Node)
			fmt.Printf("%v\n", ev.Payload)
		case foundry.EventTypeComplete:
			bold.Println("\n== complete ==")
		case foundry.EventTypeError:
			color.Red("error: %s", ev.Error)
		}
	}

	sess, err := engine.Snapshot(ctx, "sim-thread")
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	fmt.Println()
	bold.Println("Final draft:")
	fmt.Println(sess.CurrentDraft.Title)
	fmt.Println(sess.CurrentDraft.Content)
	fmt.Printf("\nversions=%d revisions=%d critiques=%d\n",
		len(sess.DraftHistory), sess.Metadata.TotalRevisions, len(sess.Critiques))
}

// hashEmbedder is a stand-in embedding provider for offline runs: the
// vector is a pure function of the text, so identical requests still
// land on identical embeddings.
type hashEmbedder struct{}

func (hashEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	sum := sha256.Sum256([]byte(text))
	values := make([]float32, 8)
	for i := range values {
		bits := binary.BigEndian.Uint32(sum[i*4 : i*4+4])
		values[i] = float32(bits%1000)/1000.0 - 0.5
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: values},
	}, nil
}

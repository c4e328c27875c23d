package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"clarity-cbt-be/internal/dto"
	"clarity-cbt-be/internal/entity"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/pkg/serverutils"
	ws "clarity-cbt-be/internal/websocket"
	"clarity-cbt-be/pkg/foundry"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

type IWorkflowController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	SaveDraft(ctx *fiber.Ctx) error
}

type workflowController struct {
	engine *foundry.Engine
	hub    *ws.Hub
	log    logger.ILogger
}

func NewWorkflowController(engine *foundry.Engine, hub *ws.Hub, log logger.ILogger) IWorkflowController {
	return &workflowController{
		engine: engine,
		hub:    hub,
		log:    log,
	}
}

func (c *workflowController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workflow/v1")
	h.Post("stream", c.Stream)
	h.Get("state/:thread_id", c.State)
	h.Post("approve", c.Approve)
	h.Post("save-draft", c.SaveDraft)

	if c.hub != nil {
		h.Use("ws/:thread_id", func(ctx *fiber.Ctx) error {
			if fiberws.IsWebSocketUpgrade(ctx) {
				return ctx.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		h.Get("ws/:thread_id", fiberws.New(func(conn *fiberws.Conn) {
			ws.ServeWs(c.hub, conn, conn.Params("thread_id"))
		}))
	}
}

// Stream runs the workflow for one message and streams every state
// transition back as server-sent events. The stream always ends with a
// complete or error event.
func (c *workflowController) Stream(ctx *fiber.Ctx) error {
	var req dto.StreamRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber context dies when this handler returns; the stream
	// writer runs after that, so the workflow gets its own context.
	runCtx := context.Background()
	engine := c.engine
	threadID, message := req.ThreadID, req.Message

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for ev := range engine.Run(runCtx, threadID, message) {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				// Client went away; the engine finishes and commits on
				// its own, we just stop writing.
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}

func (c *workflowController) State(ctx *fiber.Ctx) error {
	threadID := ctx.Params("thread_id")

	sess, err := c.engine.Snapshot(ctx.Context(), threadID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session state", snapshotResponse(sess)))
}

func (c *workflowController) Approve(ctx *fiber.Ctx) error {
	var req dto.ApproveRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	sess, err := c.engine.Approve(ctx.Context(), req.ThreadID, req.EditedContent)
	if err != nil {
		return err
	}

	res := dto.ApproveResponse{
		ThreadID: sess.ThreadID,
		Metadata: sess.Metadata,
	}
	if sess.CurrentDraft != nil {
		res.Draft = *sess.CurrentDraft
	}
	return ctx.JSON(serverutils.SuccessResponse("Exercise approved", res))
}

func (c *workflowController) SaveDraft(ctx *fiber.Ctx) error {
	var req dto.SaveDraftRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	draft := entity.ExerciseDraft{
		Title:        req.Title,
		Instructions: req.Instructions,
		Content:      req.Content,
	}
	sess, warning, err := c.engine.SaveDraft(ctx.Context(), req.ThreadID, draft, req.OriginalRequest)
	if err != nil {
		return err
	}

	res := dto.SaveDraftResponse{
		ThreadID: sess.ThreadID,
		Warning:  warning,
	}
	if sess.CurrentDraft != nil {
		res.Draft = *sess.CurrentDraft
	}
	return ctx.JSON(serverutils.SuccessResponse("Draft saved", res))
}

func snapshotResponse(sess *entity.Session) dto.SnapshotResponse {
	return dto.SnapshotResponse{
		ThreadID:     sess.ThreadID,
		CurrentDraft: sess.CurrentDraft,
		DraftHistory: sess.DraftHistory,
		Critiques:    sess.Critiques,
		Scratchpad:   sess.Scratchpad,
		Messages:     sess.Messages,
		Metadata:     sess.Metadata,
		MemoryResult: sess.MemoryResult,
		NextRole:     foundry.NextRole(sess),
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	sessionx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/session"
	metricsx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/metrics"
)

type processRequest struct {
	Messages []contractx.Turn `json:"messages"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string         `json:"session_id"`
	Reply     contractx.Turn `json:"reply"`
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (h *Handler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metricsx.WritePrometheus(&buf); err != nil {
		log.Error().Err(err).Msg("write metrics failed")
		ctx.JSON(consts.StatusInternalServerError, errorBody("metrics unavailable"))
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// Process is the stateless contract: the caller sends the whole history.
// POST /api/process
func (h *Handler) Process(c context.Context, ctx *app.RequestContext) {
	var req processRequest
	// Turn needs its own UnmarshalJSON to restore typed memories.
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return
	}

	turn, err := h.processor.Process(c, req.Messages)
	if err != nil {
		h.processError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, turn)
}

// Chat appends one user message to a stored session and replies.
// POST /api/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	var req chatRequest
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		ctx.JSON(consts.StatusBadRequest, errorBody("message is required"))
		return
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	// Load, process and save under one lock so concurrent turns of a session,
	// including its first, see each other's writes.
	unlock := h.locks.Lock(id)
	defer unlock()

	sess, err := h.loadOrCreate(c, id)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("load session failed")
		ctx.JSON(consts.StatusInternalServerError, errorBody("session unavailable"))
		return
	}

	user := contractx.UserTurn(message)
	history := append(append([]contractx.Turn(nil), sess.History...), user)
	reply, err := h.processor.Process(c, history)
	if err != nil {
		h.processError(ctx, err)
		return
	}

	sess.Append(h.now(), user, reply)
	if err := h.sessions.Save(c, sess); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("save session failed")
		ctx.JSON(consts.StatusInternalServerError, errorBody("session unavailable"))
		return
	}

	ctx.JSON(consts.StatusOK, chatResponse{SessionID: sess.ID, Reply: reply})
}

// GET /api/sessions/:id
func (h *Handler) GetSession(c context.Context, ctx *app.RequestContext) {
	id := strings.TrimSpace(ctx.Param("id"))
	sess, err := h.sessions.Load(c, id)
	if err != nil {
		h.sessionError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, sess)
}

// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c context.Context, ctx *app.RequestContext) {
	id := strings.TrimSpace(ctx.Param("id"))
	unlock := h.locks.Lock(id)
	defer unlock()

	if err := h.sessions.Delete(c, id); err != nil {
		h.sessionError(ctx, err)
		return
	}
	ctx.Status(consts.StatusNoContent)
}

// loadOrCreate must run under the session lock. A new session is persisted
// with the first reply.
func (h *Handler) loadOrCreate(c context.Context, id string) (*sessionx.Session, error) {
	sess, err := h.sessions.Load(c, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, sessionx.ErrNotFound) {
		return nil, err
	}
	return sessionx.New(id, h.now()), nil
}

func (h *Handler) processError(ctx *app.RequestContext, err error) {
	if errors.Is(err, contractx.ErrInvalidHistory) {
		ctx.JSON(consts.StatusBadRequest, errorBody(err.Error()))
		return
	}
	log.Error().Err(err).Msg("process failed")
	ctx.JSON(consts.StatusInternalServerError, errorBody("internal error"))
}

func (h *Handler) sessionError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, sessionx.ErrNotFound):
		ctx.JSON(consts.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, sessionx.ErrInvalidSession):
		ctx.JSON(consts.StatusBadRequest, errorBody(err.Error()))
	default:
		log.Error().Err(err).Msg("session store failed")
		ctx.JSON(consts.StatusInternalServerError, errorBody("session unavailable"))
	}
}

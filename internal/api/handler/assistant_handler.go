package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// Ask POST /api/v1/assistant/ask
func (h *Handler) Ask(ctx context.Context, c *app.RequestContext) {
	if h.assistant == nil {
		unavailable(c, "助手")
		return
	}
	var req askRequest
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		badRequest(c, "question 不能为空")
		return
	}
	ans, err := h.assistant.Ask(ctx, h.owner(c), req.SessionID, req.Question)
	if err != nil {
		h.writeError(ctx, c, "assistant_ask", err)
		return
	}
	c.JSON(consts.StatusOK, ans)
}

type similarRequest struct {
	CVText string `json:"cv_text"`
	K      int    `json:"k"`
}

// SimilarCVs POST /api/v1/assistant/similar
func (h *Handler) SimilarCVs(ctx context.Context, c *app.RequestContext) {
	if h.assistant == nil {
		unavailable(c, "助手")
		return
	}
	var req similarRequest
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.CVText) == "" {
		badRequest(c, "cv_text 不能为空")
		return
	}
	docs, err := h.assistant.SimilarCVs(ctx, h.owner(c), req.CVText, req.K)
	if err != nil {
		h.writeError(ctx, c, "similar_cvs", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"results": docs})
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History GET /api/v1/assistant/history/:session_id
func (h *Handler) History(ctx context.Context, c *app.RequestContext) {
	if h.assistant == nil {
		unavailable(c, "助手")
		return
	}
	sessionID := c.Param("session_id")
	msgs, err := h.assistant.History(ctx, h.owner(c), sessionID)
	if err != nil {
		h.writeError(ctx, c, "assistant_history", err)
		return
	}
	entries := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, historyEntry{Role: string(m.Role), Content: m.Content})
	}
	c.JSON(consts.StatusOK, utils.H{"session_id": sessionID, "messages": entries})
}

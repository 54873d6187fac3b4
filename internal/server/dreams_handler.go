package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/internal/insights"
	"go.uber.org/zap"
)

// DreamsHandler handles interpretation, the journal, and insights.
type DreamsHandler struct {
	store       dreams.Store
	interpreter dreams.Interpreter
	users       userSvc
	logger      *zap.Logger
}

// NewDreamsHandler creates a DreamsHandler.
func NewDreamsHandler(store dreams.Store, interpreter dreams.Interpreter, users userSvc, logger *zap.Logger) *DreamsHandler {
	return &DreamsHandler{store: store, interpreter: interpreter, users: users, logger: logger}
}

// Register mounts the public interpret route on rg and the journal routes
// on authed.
func (h *DreamsHandler) Register(rg, authed *gin.RouterGroup) {
	rg.POST("/interpret", h.Interpret)
	authed.POST("/dreams", h.SaveDream)
	authed.GET("/dreams", h.ListDreams)
	authed.DELETE("/dreams/:id", h.DeleteDream)
	authed.DELETE("/dreams", h.ClearDreams)
	authed.GET("/insights", h.Insights)
}

type interpretRequest struct {
	DreamText string `json:"dreamText" binding:"required"`
}

// Interpret handles POST /interpret. It requires no session so visitors can
// try the product before signing up.
func (h *DreamsHandler) Interpret(c *gin.Context) {
	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "dreamText is required")
		return
	}

	interpretation, err := h.interpreter.Interpret(c.Request.Context(), req.DreamText)
	if err != nil {
		RecordInterpretation(false)
		h.logger.Error("interpret dream", zap.Error(err))
		fail(c, http.StatusBadGateway, "interpretation service unavailable")
		return
	}
	RecordInterpretation(true)
	respond(c, http.StatusOK, gin.H{"interpretation": interpretation})
}

// SaveDream handles POST /dreams. The dream is interpreted and analyzed
// before it is stored; non-premium journals are trimmed to the retention
// limit afterwards.
func (h *DreamsHandler) SaveDream(c *gin.Context) {
	sess, _ := SessionFromCtx(c)
	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "dreamText is required")
		return
	}
	ctx := c.Request.Context()

	interpretation, err := h.interpreter.Interpret(ctx, req.DreamText)
	if err != nil {
		RecordInterpretation(false)
		h.logger.Error("interpret dream", zap.Error(err))
		fail(c, http.StatusBadGateway, "interpretation service unavailable")
		return
	}
	RecordInterpretation(true)

	analysis := dreams.Analyze(req.DreamText)
	clarity := analysis.Clarity
	rec := dreams.Record{
		ID:             uuid.New(),
		UserID:         sess.UserID,
		DreamText:      req.DreamText,
		Interpretation: interpretation,
		Timestamp:      time.Now().UTC(),
		Tags:           analysis.Tags,
		Sentiment:      analysis.Sentiment,
		Mood:           analysis.Mood,
		Clarity:        &clarity,
		Themes:         analysis.Themes,
		Symbols:        analysis.Symbols,
	}

	if err := h.store.Add(ctx, rec); err != nil {
		h.logger.Error("save dream", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to save dream")
		return
	}
	RecordDreamSaved()

	u, err := h.users.GetByID(ctx, sess.UserID)
	if err == nil && !u.Premium() {
		if err := h.store.EvictBeyond(ctx, sess.UserID, dreams.FreeLimit); err != nil {
			h.logger.Error("trim journal", zap.Error(err))
		}
	}
	if err := h.users.RecordDream(ctx, sess.UserID); err != nil {
		h.logger.Warn("bump dream stats", zap.Error(err))
	}

	respond(c, http.StatusCreated, rec)
}

// ListDreams handles GET /dreams, newest-first.
func (h *DreamsHandler) ListDreams(c *gin.Context) {
	sess, _ := SessionFromCtx(c)
	records, err := h.store.ListByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("list dreams", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to load dreams")
		return
	}
	if records == nil {
		records = []dreams.Record{}
	}
	respond(c, http.StatusOK, records)
}

// DeleteDream handles DELETE /dreams/:id. Only the owner can remove a dream.
func (h *DreamsHandler) DeleteDream(c *gin.Context) {
	sess, _ := SessionFromCtx(c)
	dreamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid dream id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), sess.UserID, dreamID); err != nil {
		if errors.Is(err, dreams.ErrNotFound) {
			fail(c, http.StatusNotFound, "dream not found")
			return
		}
		h.logger.Error("delete dream", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to delete dream")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "dream deleted"})
}

// ClearDreams handles DELETE /dreams, emptying the user's journal.
func (h *DreamsHandler) ClearDreams(c *gin.Context) {
	sess, _ := SessionFromCtx(c)
	if err := h.store.DeleteByUser(c.Request.Context(), sess.UserID); err != nil {
		h.logger.Error("clear dreams", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to clear dreams")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "journal cleared"})
}

// Insights handles GET /insights. The envelope carries the covered dreams in
// a sibling key beside the summary so clients can render both.
func (h *DreamsHandler) Insights(c *gin.Context) {
	sess, _ := SessionFromCtx(c)
	records, err := h.store.ListByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("load dreams for insights", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	summary, err := insights.Aggregate(records, time.Now())
	if err != nil {
		// An empty journal is not an error at the HTTP surface.
		c.JSON(http.StatusOK, gin.H{
			"data":   gin.H{"totalDreams": 0},
			"dreams": []dreams.Record{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary, "dreams": records})
}

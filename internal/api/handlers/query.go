package handlers

import (
	"errors"
	"net/http"

	"github.com/noit/research-api/internal/api/middleware"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/service"
)

type QueryHandler struct {
	queryService *service.QueryService
	log          logging.Logger
}

func NewQueryHandler(queryService *service.QueryService, log logging.Logger) *QueryHandler {
	return &QueryHandler{queryService: queryService, log: log}
}

type QueryRequest struct {
	Query string `json:"query" validate:"required,max=8000"`
	Model string `json:"model" validate:"omitempty,max=100"`
}

type QueryResponse struct {
	Answer *string `json:"answer"`
	ID     uint64  `json:"id"`
}

// AnswerFailedResponse is the 502 body; the question is stored under ID.
type AnswerFailedResponse struct {
	Detail string `json:"detail"`
	ID     uint64 `json:"id"`
}

type HistoryItem struct {
	ID       uint64  `json:"id"`
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, middleware.UnauthorizedDetail)
		return
	}

	var req QueryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.queryService.Ask(r.Context(), identity, req.Query, req.Model)
	if err != nil {
		if errors.Is(err, service.ErrAnswerUnavailable) && record != nil {
			writeJSON(w, http.StatusBadGateway, AnswerFailedResponse{
				Detail: "Answer generation failed",
				ID:     record.ID,
			})
			return
		}
		h.log.Error(r.Context(), "query failed", "user_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Answer: record.Answer,
		ID:     record.ID,
	})
}

func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, middleware.UnauthorizedDetail)
		return
	}

	records, err := h.queryService.History(r.Context(), identity)
	if err != nil {
		h.log.Error(r.Context(), "history failed", "user_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]HistoryItem, 0, len(records))
	for _, q := range records {
		items = append(items, HistoryItem{
			ID:       q.ID,
			Question: q.Question,
			Answer:   q.Answer,
		})
	}

	writeJSON(w, http.StatusOK, items)
}

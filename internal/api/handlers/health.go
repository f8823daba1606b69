package handlers

import "net/http"

type HealthHandler struct {
	allowedOrigins []string
}

func NewHealthHandler(allowedOrigins []string) *HealthHandler {
	origins := make([]string, len(allowedOrigins))
	copy(origins, allowedOrigins)
	return &HealthHandler{allowedOrigins: origins}
}

type HealthResponse struct {
	Status         string   `json:"status"`
	AllowedOrigins []string `json:"allowed_origins"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		AllowedOrigins: h.allowedOrigins,
	})
}

package chat

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jdfmarine/leadengine/pkg/logging"
)

const maxRequestBody = 1 << 20

// Handler exposes the chat pipeline over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type chatRequest struct {
	Message   string    `json:"message"`
	History   []Message `json:"history"`
	SessionID string    `json:"sessionId"`
	Persona   Persona   `json:"persona"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	// Error is informational only. Clients render Response regardless.
	Error string `json:"error,omitempty"`
}

// HandleChat processes POST /api/chat. The endpoint always answers HTTP 200
// with a usable reply; malformed bodies are coerced to safe defaults rather
// than rejected.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err == nil && len(body) > 0 {
		if jsonErr := json.Unmarshal(body, &req); jsonErr != nil {
			h.logger.Warn("malformed chat request body, using defaults", "error", jsonErr.Error())
			req = chatRequest{}
		}
	}

	result := h.svc.HandleTurn(r.Context(), TurnRequest{
		Message:   req.Message,
		History:   req.History,
		SessionID: req.SessionID,
		Persona:   req.Persona,
	})

	resp := chatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode chat response", "error", err.Error())
	}
}

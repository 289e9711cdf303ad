package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
)

// listTimestampLayout is the fixed pattern for timestamps in list responses.
const listTimestampLayout = "2006-01-02 15:04:05"

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error","details":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes the failure envelope with a short label and a human message.
func writeError(w http.ResponseWriter, status int, label, details string) {
	writeJSON(w, status, errorResponse{Error: label, Details: details})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// AckResponse acknowledges a successful mutation.
type AckResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Result  *InsertResultResponse `json:"result,omitempty"`
}

// InsertResultResponse is the affected-row metadata of a create.
type InsertResultResponse struct {
	InsertID     int64 `json:"insertId"`
	AffectedRows int64 `json:"affectedRows"`
}

// ThoughtResponse is the public projection of a thought. It has no password
// field by construction.
type ThoughtResponse struct {
	ID        int64  `json:"id"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Date      string `json:"date"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// CreateThoughtRequest is the JSON body of POST /thoughts.
type CreateThoughtRequest struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateThoughtRequest is the JSON body of PUT /thoughts/{id}.
type UpdateThoughtRequest struct {
	Content  string `json:"content"`
	Password string `json:"password"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toThoughtResponse converts a domain Thought to its JSON response representation.
func toThoughtResponse(t model.Thought) ThoughtResponse {
	return ThoughtResponse{
		ID:        t.ID,
		Receiver:  t.Receiver,
		Content:   t.Content,
		Date:      t.Date.UTC().Format(listTimestampLayout),
		Username:  t.Username,
		CreatedAt: t.CreatedAt.UTC().Format(listTimestampLayout),
	}
}

func toInsertResultResponse(res model.InsertResult) *InsertResultResponse {
	return &InsertResultResponse{
		InsertID:     res.ID,
		AffectedRows: res.RowsAffected,
	}
}

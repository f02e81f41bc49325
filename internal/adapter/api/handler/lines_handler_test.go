package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/psbotkit/scribe/internal/domain"
)

// mockRecorder is a mock implementation of LineRecorder.
type mockRecorder struct {
	mu       sync.Mutex
	recorded []domain.ChatLine
	err      error
}

func (m *mockRecorder) Record(ctx context.Context, line *domain.ChatLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, *line)
	return nil
}

func TestLinesHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		recordErr      error
		expectedStatus int
		expectedBody   string
		expectedLines  int
	}{
		{
			name:           "Valid Single JSON",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"room_id": "lobby", "user_name": "Annika", "kind": "chat", "body": "hello"}`,
			expectedStatus: http.StatusAccepted,
			expectedBody:   "",
			expectedLines:  1,
		},
		{
			name:           "Valid NDJSON",
			method:         http.MethodPost,
			contentType:    "application/x-ndjson",
			body:           `{"room_id": "lobby", "kind": "chat", "body": "one"}` + "\n" + `{"room_id": "lobby", "kind": "chat", "body": "two"}`,
			expectedStatus: http.StatusAccepted,
			expectedBody:   "",
			expectedLines:  2,
		},
		{
			name:           "Invalid Method",
			method:         http.MethodGet,
			contentType:    "application/json",
			body:           `{}`,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   "Method Not Allowed\n",
		},
		{
			name:           "Unsupported Content-Type",
			method:         http.MethodPost,
			contentType:    "text/plain",
			body:           `hello`,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   "Unsupported Media Type: text/plain\n",
		},
		{
			name:           "Bad JSON",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"body": "hello"`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: Failed to decode JSON\n",
		},
		{
			name:           "Bad NDJSON line",
			method:         http.MethodPost,
			contentType:    "application/x-ndjson",
			body:           `{"body": "one"}` + "\n" + `{"body": "bad`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: Failed to decode NDJSON line\n",
			expectedLines:  1,
		},
		{
			name:           "Record Error",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"body": "fail me"}`,
			recordErr:      errors.New("buffer unavailable"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error\n",
		},
		{
			name:           "Payload Too Large",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"body": "this payload is definitely too large for the test limit"}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   "Payload too large\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockRecorder{err: tt.recordErr}

			// Use a small max size for the "Payload Too Large" test
			maxSize := int64(1024)
			if tt.name == "Payload Too Large" {
				maxSize = 50
			}

			handler := NewLinesHandler(recorder, logger, maxSize)

			req := httptest.NewRequest(tt.method, "/lines", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", status, tt.expectedStatus)
			}
			if body := rr.Body.String(); body != tt.expectedBody {
				t.Errorf("handler returned unexpected body: got %q want %q", body, tt.expectedBody)
			}
			if len(recorder.recorded) != tt.expectedLines {
				t.Errorf("expected %d recorded lines, got %d", tt.expectedLines, len(recorder.recorded))
			}
		})
	}
}

package mocks

import (
	"context"
	"sync"

	"github.com/psbotkit/scribe/internal/domain"
)

// LinecountCall records one Linecount invocation on the mock store.
type LinecountCall struct {
	UserID string
	RoomID string
	Days   int
}

// MockChatlogger is a mock implementation of domain.Chatlogger for testing.
// FormatLine returns the raw line unchanged unless FormatLineFunc is set,
// which keeps expected HTML in tests predictable.
type MockChatlogger struct {
	mu             sync.Mutex
	SearchResult   domain.SearchResults
	SearchErr      error
	SearchCalls    []domain.SearchQuery
	LinecountValue int
	LinecountErr   error
	LinecountCalls []LinecountCall
	WrittenLines   []domain.ChatLine
	WriteErr       error
	FormatLineFunc func(raw string, asHTML bool) string
}

func (m *MockChatlogger) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, q)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResult, nil
}

func (m *MockChatlogger) Linecount(ctx context.Context, userID, roomID string, days int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinecountCalls = append(m.LinecountCalls, LinecountCall{UserID: userID, RoomID: roomID, Days: days})
	if m.LinecountErr != nil {
		return 0, m.LinecountErr
	}
	return m.LinecountValue, nil
}

func (m *MockChatlogger) WriteLineBatch(ctx context.Context, lines []domain.ChatLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.WrittenLines = append(m.WrittenLines, lines...)
	return nil
}

func (m *MockChatlogger) FormatLine(raw string, asHTML bool) string {
	if m.FormatLineFunc != nil {
		return m.FormatLineFunc(raw, asHTML)
	}
	return raw
}

// MockRoomDirectory resolves rooms from a fixed map.
type MockRoomDirectory struct {
	Rooms map[string]*domain.Room
}

func (m *MockRoomDirectory) GetRoom(id string) *domain.Room {
	return m.Rooms[id]
}

// Reply is one recorded response emission.
type Reply struct {
	Kind string // "text" or "html"
	Body string
}

// MockResponder records replies in emission order.
type MockResponder struct {
	Replies []Reply
}

func (r *MockResponder) Respond(text string) {
	r.Replies = append(r.Replies, Reply{Kind: "text", Body: text})
}

func (r *MockResponder) RespondHTML(html string) {
	r.Replies = append(r.Replies, Reply{Kind: "html", Body: html})
}

// MockLineBuffer is a mock implementation of domain.LineBuffer.
type MockLineBuffer struct {
	mu              sync.Mutex
	BufferedLines   []domain.ChatLine
	ReadBatchResult []domain.ChatLine
	AckedMessageIDs []string
	DLQLines        []domain.ChatLine
	BufferErr       error
	ReadErr         error
	AckErr          error
	DLQErr          error
}

func (m *MockLineBuffer) BufferLine(ctx context.Context, line domain.ChatLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BufferErr != nil {
		return m.BufferErr
	}
	m.BufferedLines = append(m.BufferedLines, line)
	return nil
}

func (m *MockLineBuffer) ReadLineBatch(ctx context.Context, group, consumer string, count int) ([]domain.ChatLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.ReadBatchResult, nil
}

func (m *MockLineBuffer) AcknowledgeLines(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	return nil
}

func (m *MockLineBuffer) MoveToDLQ(ctx context.Context, lines []domain.ChatLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DLQErr != nil {
		return m.DLQErr
	}
	m.DLQLines = append(m.DLQLines, lines...)
	return nil
}

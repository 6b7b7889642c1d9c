package unimestre

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned response for the MockTransport.
type MockResponse struct {
	Body []byte
	Err  error
}

// MockCall records one request made to a MockTransport.
type MockCall struct {
	Op       string // "login" or "sync"
	Payload  []byte
	PersonID int
}

// MockTransport is a deterministic Transport for tests. It returns canned
// responses in FIFO order and records all requests.
type MockTransport struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall

	// Gate, when set, is received from before each response is returned.
	// Tests use it to hold a request in flight.
	Gate chan struct{}
}

var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates a MockTransport with the given canned responses.
func NewMockTransport(responses ...MockResponse) *MockTransport {
	return &MockTransport{responses: responses}
}

func (m *MockTransport) Login(ctx context.Context, payload []byte) ([]byte, error) {
	return m.next(ctx, MockCall{Op: "login", Payload: append([]byte(nil), payload...)})
}

func (m *MockTransport) Sync(ctx context.Context, personID int) ([]byte, error) {
	return m.next(ctx, MockCall{Op: "sync", PersonID: personID})
}

func (m *MockTransport) next(ctx context.Context, call MockCall) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, TransportFailure(ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil, TransportFailure(errors.New("mock: no canned response"))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Body, nil
}

// AddResponse appends a canned response to the queue.
func (m *MockTransport) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of requests made.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

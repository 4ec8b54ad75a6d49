package parley

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestLogger routes engine logs to the test output.
type TestLogger struct {
	t *testing.T

	mu     sync.Mutex
	errors []string
}

func (l *TestLogger) Debug(format string, args ...interface{}) {
	l.t.Logf("[DEBUG] "+format, args...)
}

func (l *TestLogger) Info(format string, args ...interface{}) {
	l.t.Logf("[INFO] "+format, args...)
}

func (l *TestLogger) Warn(format string, args ...interface{}) {
	l.t.Logf("[WARN] "+format, args...)
}

func (l *TestLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
	l.mu.Unlock()
	l.t.Logf("[ERROR] "+format, args...)
}

func (l *TestLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.errors))
	copy(out, l.errors)
	return out
}

// fakeMessenger records every send and delete, never touching a network.
type fakeMessenger struct {
	mu       sync.Mutex
	sent     []Outbound
	sentMsgs []Message
	deleted  []Message
	failSend error
	nextID   int
}

func (m *fakeMessenger) Send(_ context.Context, channelID string, out Outbound) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSend != nil {
		return Message{}, m.failSend
	}
	m.nextID++
	msg := Message{ID: fmt.Sprintf("m%d", m.nextID), ChannelID: channelID}
	m.sent = append(m.sent, out)
	m.sentMsgs = append(m.sentMsgs, msg)
	return msg, nil
}

func (m *fakeMessenger) Delete(_ context.Context, msg Message, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, msg)
	return nil
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, o := range m.sent {
		out[i] = o.Text
	}
	return out
}

func (m *fakeMessenger) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	for i, msg := range m.deleted {
		out[i] = msg.ID
	}
	return out
}

// fakeInputs exposes one buffered channel; tests pre-load inputs before
// sending a step so collection sees them in order.
type fakeInputs struct {
	ch chan Inbound
}

func newFakeInputs() *fakeInputs {
	return &fakeInputs{ch: make(chan Inbound, 32)}
}

func (f *fakeInputs) Subscribe(string) (<-chan Inbound, func()) {
	return f.ch, func() {}
}

func (f *fakeInputs) push(authorID, content string) {
	f.ch <- Inbound{ID: "in", ChannelID: "chan", AuthorID: authorID, Content: content}
}

type fakePaginator struct {
	mu         sync.Mutex
	registered map[string][]*Page
}

func newFakePaginator() *fakePaginator {
	return &fakePaginator{registered: make(map[string][]*Page)}
}

func (p *fakePaginator) Register(messageID string, pages []*Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered[messageID] = pages
	return nil
}

type fakePermissions struct {
	allow bool
}

func (p *fakePermissions) CanPaginate(string) bool { return p.allow }

// testEnv builds a fully faked environment for one test.
func testEnv(t *testing.T) (*Env, *fakeMessenger, *fakeInputs, *TestLogger) {
	messenger := &fakeMessenger{}
	inputs := newFakeInputs()
	logger := &TestLogger{t: t}

	env := &Env{
		Messenger:   messenger,
		Inputs:      inputs,
		Paginator:   newFakePaginator(),
		Permissions: &fakePermissions{allow: true},
		Translator:  NewMapTranslator(nil),
		Busy:        NewMemoryBusyTracker(),
		Logger:      logger,
	}
	return env, messenger, inputs, logger
}

var testReq = Request{ChannelID: "chan", AuthorID: "user-1"}

package gateway

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var fakeIDs atomic.Int64

// fakeClient records what it is sent; it stands in for a live socket
type fakeClient struct {
	id string

	mu       sync.Mutex
	messages [][]byte
	blocked  bool
	closed   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{id: fmt.Sprintf("fake-%d", fakeIDs.Add(1))}
}

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) TrySend(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked || f.closed {
		return false
	}
	f.messages = append(f.messages, data)
	return true
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeClient) setBlocked(blocked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = blocked
}

func (f *fakeClient) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.messages))
	copy(out, f.messages)
	return out
}

// fakeMirror records mirrored payloads
type fakeMirror struct {
	mu        sync.Mutex
	published map[MessageType][][]byte
	err       error
	closed    bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{published: make(map[MessageType][][]byte)}
}

func (m *fakeMirror) Publish(msgType MessageType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published[msgType] = append(m.published[msgType], data)
	return nil
}

func (m *fakeMirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

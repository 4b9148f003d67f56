package relay

import (
	"context"
	"sync"
)

// Mailbox queues serialized packets for recipients that are offline.
type Mailbox interface {
	// Enqueue appends packets to the user's queue.
	Enqueue(ctx context.Context, user string, packets ...[]byte) error

	// Drain returns and clears the user's queue, oldest first.
	Drain(ctx context.Context, user string) ([][]byte, error)
}

// MemoryMailbox keeps queues in process memory. State is lost on exit.
type MemoryMailbox struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

// NewMemoryMailbox returns an empty in-memory mailbox.
func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{queues: make(map[string][][]byte)}
}

func (m *MemoryMailbox) Enqueue(_ context.Context, user string, packets ...[]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[user] = append(m.queues[user], packets...)
	return nil
}

func (m *MemoryMailbox) Drain(_ context.Context, user string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queues[user]
	delete(m.queues, user)
	return out, nil
}

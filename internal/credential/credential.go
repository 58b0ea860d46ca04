package credential

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidCredential is returned when an empty token is offered to Set.
var ErrInvalidCredential = errors.New("credential must not be empty")

// SlotKey is the name of the persisted slot holding the analysis token.
const SlotKey = "volcanoApiKey"

// Store persists the single access token used for analysis calls.
type Store interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Subscribe(fn func(present bool)) (unsubscribe func())
}

// notifier fans credential changes out to subscribers
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(present bool)
}

// Subscribe registers fn to run after every Set or Clear. Call the returned
// func to stop receiving notifications.
func (n *notifier) Subscribe(fn func(present bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(present bool))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(present bool) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(present)
	}
}

func normalize(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidCredential
	}
	return token, nil
}

// MemoryStore keeps the token for the lifetime of the process only.
type MemoryStore struct {
	notifier
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Set(ctx context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	m.notify(true)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()

	m.notify(false)
	return nil
}

package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"shopcore.dev/internal/ids"
)

// MemoryStore implements Store in process memory. Used when no database is
// configured and by tests; concurrency-safe under a single RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*User // id -> user
	sessions []Session
	audit    []AuditEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

func (m *MemoryStore) Users(context.Context) UserStore       { return (*memUserStore)(m) }
func (m *MemoryStore) Sessions(context.Context) SessionStore { return (*memSessionStore)(m) }
func (m *MemoryStore) Audit(context.Context) AuditStore      { return (*memAuditStore)(m) }

// SessionRows returns a snapshot of recorded sessions, oldest first.
func (m *MemoryStore) SessionRows() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// AuditRows returns a snapshot of the audit trail, oldest first.
func (m *MemoryStore) AuditRows() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

type memUserStore MemoryStore

func (s *memUserStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) Find(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

type memSessionStore MemoryStore

func (s *memSessionStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.sessions = append(s.sessions, *sess)
	return nil
}

type memAuditStore MemoryStore

func (s *memAuditStore) Append(_ context.Context, entry *AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	s.audit = append(s.audit, *entry)
	return nil
}

// SeedDemo loads the demo merchant accounts used in development mode.
func SeedDemo(ctx context.Context, store Store, hasher PasswordHasher) error {
	type seed struct {
		email, password, name string
		role                  Role
		active                bool
	}
	seeds := []seed{
		{"admin@test-shop.com", "admin123", "Demo Admin", RoleAdmin, true},
		{"manager@test-shop.com", "manager123", "Demo Manager", RoleManager, true},
		{"viewer@test-shop.com", "password", "Demo Viewer", RoleViewer, true},
		{"inactive@test-shop.com", "password", "Demo Inactive", RoleViewer, false},
	}
	users := store.Users(ctx)
	for _, sd := range seeds {
		hash, err := hasher.Hash(sd.password)
		if err != nil {
			return err
		}
		u := &User{
			MerchantID:   "test-shop",
			Email:        sd.email,
			PasswordHash: hash,
			DisplayName:  sd.name,
			Role:         sd.role,
			Active:       sd.active,
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

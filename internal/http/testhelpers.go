package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/service"
)

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// CreateUIHandlersForTest creates UIHandlers with a template renderer for testing.
func CreateUIHandlersForTest(t *testing.T) *UIHandlers {
	t.Helper()
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return nil
	}
	return &UIHandlers{T: tr}
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testSession(id string, role domainauth.Role) *domainauth.Session {
	return &domainauth.Session{
		ID:        id,
		UserID:    "user-" + id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     id + "@example.com",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// stubSessions serves sessions from a map and counts lookups.
type stubSessions struct {
	mu       sync.Mutex
	sessions map[string]*domainauth.Session
	lookups  int
}

func newStubSessions(sessions ...*domainauth.Session) *stubSessions {
	s := &stubSessions{sessions: map[string]*domainauth.Session{}}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	return s
}

func (s *stubSessions) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return sess, nil
}

func (s *stubSessions) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

// stubAuthority returns a fixed role regardless of the session.
type stubAuthority struct{ role domainauth.Role }

func (a stubAuthority) Role(context.Context, domainauth.Session) domainauth.Role { return a.role }

// stubGranter grants plain role names for known sessions. It also answers
// authoritative role checks, from roles when set and the session otherwise.
type stubGranter struct {
	sessions *stubSessions
	roles    map[string]domainauth.Role
	fallback bool
	err      error
	calls    int
}

func (g *stubGranter) Role(_ context.Context, sess domainauth.Session) domainauth.Role {
	if r, ok := g.roles[sess.UserID]; ok {
		return r
	}
	return sess.Role
}

func (g *stubGranter) Grant(ctx context.Context, sessionID string) (service.RoleGrant, error) {
	g.calls++
	if g.err != nil {
		return service.RoleGrant{}, g.err
	}
	if sessionID == "" {
		return service.RoleGrant{}, service.ErrUnauthenticated
	}
	sess, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return service.RoleGrant{}, service.ErrUnauthenticated
	}
	role := sess.Role
	if !role.Valid() {
		role = domainauth.RoleCustomer
	}
	return service.RoleGrant{Role: role, Value: string(role), Fallback: g.fallback, Session: *sess}, nil
}

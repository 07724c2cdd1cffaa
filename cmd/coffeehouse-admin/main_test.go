package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/config"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: coffeehouse-admin <command> [flags]")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("clear-cart")), bytes.Index(buf.Bytes(), []byte("role-sync")))
	for name := range commands() {
		assert.Contains(t, out, name)
	}
}

func TestParseFlags(t *testing.T) {
	_, err := parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)

	opts, err := parsePurgeFlags(nil, config.ReaperConfig{BatchSize: 250})
	require.NoError(t, err)
	assert.Equal(t, 250, opts.BatchSize)

	_, err = parseClearCartFlags([]string{"--user", "  "})
	require.EqualError(t, err, "--user is required")

	_, err = parseListSessionsFlags([]string{"--limit", "0"})
	require.Error(t, err)

	rs, err := parseRoleSyncFlags([]string{"--session", "abc", "--delay", "5ms"}, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", rs.BaseURL)
	assert.Equal(t, 5*time.Millisecond, rs.Delay)

	_, err = parseRoleSyncFlags(nil, "http://localhost:8080")
	require.EqualError(t, err, "--session is required")
}

func TestRoleSyncPrintsRoleAndCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session_id")
		if r.URL.Path != "/api/auth/role" || err != nil || c.Value != "sess-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "user-role", Value: "cashier", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"role":"cashier","message":"role cookie set"}`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	err := roleSync(t.Context(), &out, discard(), roleSyncOptions{
		BaseURL:   srv.URL,
		SessionID: "sess-1",
		Delay:     time.Millisecond,
		Timeout:   time.Second,
	}, "user-role")
	require.NoError(t, err)
	assert.Equal(t, "role: cashier\ncookie user-role=cashier\n", out.String())
}

func TestRoleSyncUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	err := roleSync(t.Context(), &out, discard(), roleSyncOptions{
		BaseURL:   srv.URL,
		SessionID: "stale",
		Delay:     time.Millisecond,
		Timeout:   time.Second,
	}, "user-role")
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRoleSyncRejectsRelativeBaseURL(t *testing.T) {
	err := roleSync(t.Context(), io.Discard, discard(), roleSyncOptions{BaseURL: "/app", SessionID: "x", Timeout: time.Second}, "user-role")
	require.Error(t, err)
}

func TestListSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set("coffeehouse:session:abc", "{}"))
	mr.SetTTL("coffeehouse:session:abc", time.Hour)
	require.NoError(t, mr.Set("coffeehouse:cart:abc", "{}"))

	var out bytes.Buffer
	require.NoError(t, listSessions(t.Context(), &out, client, "coffeehouse:session:", 10))

	s := out.String()
	assert.Contains(t, s, "SESSION")
	assert.Contains(t, s, "abc")
	assert.Contains(t, s, "1h0m0s")
	assert.Contains(t, s, "Total sessions: 1")
	assert.NotContains(t, s, "cart")
}

package raft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devadigapratham/printeta/internal/logging"
)

type fakeMembership struct {
	leader  bool
	joined  map[string]string
	removed []string
}

func (m *fakeMembership) Join(id, addr string) error {
	if !m.leader {
		return ErrNotLeader
	}
	m.joined[id] = addr
	return nil
}

func (m *fakeMembership) Leave(id string) error {
	if !m.leader {
		return ErrNotLeader
	}
	m.removed = append(m.removed, id)
	return nil
}

func serve(m *fakeMembership) *httptest.Server {
	tr := NewTransport(m, logging.Discard())
	mux := http.NewServeMux()
	mux.Handle("/raft/", http.StripPrefix("/raft", tr.RaftHandler()))
	return httptest.NewServer(mux)
}

// TestJoinClusterAddsVoter posts a join to the leader.
func TestJoinClusterAddsVoter(t *testing.T) {
	m := &fakeMembership{leader: true, joined: map[string]string{}}
	srv := serve(m)
	defer srv.Close()

	tr := NewTransport(m, logging.Discard())
	if err := tr.JoinCluster(context.Background(), srv.URL, "n2", "127.0.0.1:7002"); err != nil {
		t.Fatalf("JoinCluster: %v", err)
	}
	if m.joined["n2"] != "127.0.0.1:7002" {
		t.Fatalf("joined = %v", m.joined)
	}

	if err := tr.LeaveCluster(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "n2"); err != nil {
		t.Fatalf("LeaveCluster: %v", err)
	}
	if len(m.removed) != 1 || m.removed[0] != "n2" {
		t.Fatalf("removed = %v", m.removed)
	}
}

// TestJoinClusterFollowerConflict surfaces the follower's refusal.
func TestJoinClusterFollowerConflict(t *testing.T) {
	m := &fakeMembership{joined: map[string]string{}}
	srv := serve(m)
	defer srv.Close()

	err := NewTransport(m, logging.Discard()).JoinCluster(context.Background(), srv.URL, "n2", "127.0.0.1:7002")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("err = %v, want 409", err)
	}
}

// TestRaftHandlerValidates rejects bad methods and bodies.
func TestRaftHandlerValidates(t *testing.T) {
	m := &fakeMembership{leader: true, joined: map[string]string{}}
	h := NewTransport(m, logging.Discard()).RaftHandler()

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/join", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/join", "{", http.StatusBadRequest},
		{http.MethodPost, "/join", `{"node_id":"n2"}`, http.StatusBadRequest},
		{http.MethodPost, "/leave", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
		if rec.Code != tt.want {
			t.Fatalf("%s %s %q = %d, want %d", tt.method, tt.path, tt.body, rec.Code, tt.want)
		}
	}
}

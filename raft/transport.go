package raft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Membership is the part of a node the membership endpoints drive
type Membership interface {
	Join(nodeID, addr string) error
	Leave(nodeID string) error
}

// Transport carries cluster membership requests over HTTP
type Transport struct {
	node   Membership
	client *http.Client
	log    logrus.FieldLogger
}

// NewTransport creates a new Transport
func NewTransport(node Membership, log logrus.FieldLogger) *Transport {
	return &Transport{
		node:   node,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

type joinRequest struct {
	NodeID   string `json:"node_id"`
	NodeAddr string `json:"node_addr"`
}

// JoinCluster asks the node serving HTTP at joinAddr to add this node
func (t *Transport) JoinCluster(ctx context.Context, joinAddr, nodeID, raftAddr string) error {
	return t.post(ctx, joinAddr, "/raft/join", joinRequest{NodeID: nodeID, NodeAddr: raftAddr})
}

// LeaveCluster asks the node serving HTTP at leaderAddr to remove nodeID
func (t *Transport) LeaveCluster(ctx context.Context, leaderAddr, nodeID string) error {
	return t.post(ctx, leaderAddr, "/raft/leave", joinRequest{NodeID: nodeID})
}

func (t *Transport) post(ctx context.Context, httpAddr, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := httpAddr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(url, "/")+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("received non-success response %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// RaftHandler returns an HTTP handler for cluster membership, expecting
// paths relative to its mount point ("/join", "/leave").
func (t *Transport) RaftHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		req, ok := t.decode(w, r)
		if !ok {
			return
		}
		if req.NodeAddr == "" {
			http.Error(w, "node_addr is required", http.StatusBadRequest)
			return
		}
		t.respond(w, t.node.Join(req.NodeID, req.NodeAddr), "join", req)
	})

	mux.HandleFunc("/leave", func(w http.ResponseWriter, r *http.Request) {
		req, ok := t.decode(w, r)
		if !ok {
			return
		}
		t.respond(w, t.node.Leave(req.NodeID), "leave", req)
	})

	return mux
}

func (t *Transport) decode(w http.ResponseWriter, r *http.Request) (joinRequest, bool) {
	var req joinRequest
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request: %v", err), http.StatusBadRequest)
		return req, false
	}
	if req.NodeID == "" {
		http.Error(w, "node_id is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (t *Transport) respond(w http.ResponseWriter, err error, op string, req joinRequest) {
	entry := t.log.WithFields(logrus.Fields{"op": op, "node_id": req.NodeID})
	switch {
	case err == nil:
		entry.Info("cluster membership changed")
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrNotLeader):
		http.Error(w, "Not the leader", http.StatusConflict)
	default:
		entry.WithError(err).Warn("cluster membership change failed")
		http.Error(w, fmt.Sprintf("Failed to %s: %v", op, err), http.StatusInternalServerError)
	}
}

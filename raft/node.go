package raft

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"

	"github.com/devadigapratham/printeta/api/models"
)

// ErrNotLeader is returned when a write reaches a follower
var ErrNotLeader = errors.New("not the leader")

const applyTimeout = 5 * time.Second

// Node represents a node in the Raft cluster
type Node struct {
	id        string
	raft      *raft.Raft
	fsm       *FSM
	transport *raft.NetworkTransport
	logStore  *raftboltdb.BoltStore
}

// Config represents the configuration for a Raft node
type Config struct {
	NodeID    string
	RaftAddr  string
	RaftDir   string
	Bootstrap bool
	Peers     []string
	Logger    hclog.Logger
}

// NewNode creates a new Raft node driving fsm
func NewNode(config *Config, fsm *FSM) (*Node, error) {
	logger := config.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	// Create the Raft configuration
	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(config.NodeID)
	raftConfig.SnapshotInterval = 20 * time.Second
	raftConfig.SnapshotThreshold = 1024
	raftConfig.Logger = logger

	// Create the log store and stable store, one BoltDB file for both
	store, err := raftboltdb.NewBoltStore(filepath.Join(config.RaftDir, "raft.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create BoltDB store: %w", err)
	}

	// Create the snapshot store
	snapshotStore, err := raft.NewFileSnapshotStoreWithLogger(config.RaftDir, 3, logger.Named("snapshot"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	// Create the transport
	addr, err := net.ResolveTCPAddr("tcp", config.RaftAddr)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to resolve TCP address: %w", err)
	}
	transport, err := raft.NewTCPTransportWithLogger(config.RaftAddr, addr, 3, 10*time.Second, logger.Named("transport"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create TCP transport: %w", err)
	}

	// Create the Raft instance
	r, err := raft.NewRaft(raftConfig, fsm, store, store, snapshotStore, transport)
	if err != nil {
		transport.Close()
		store.Close()
		return nil, fmt.Errorf("failed to create Raft instance: %w", err)
	}

	if config.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{
					ID:      raft.ServerID(config.NodeID),
					Address: raft.ServerAddress(config.RaftAddr),
				},
			},
		}
		for _, peer := range config.Peers {
			if peer != config.RaftAddr {
				configuration.Servers = append(configuration.Servers, raft.Server{
					ID:      raft.ServerID(fmt.Sprintf("node-%s", peer)),
					Address: raft.ServerAddress(peer),
				})
			}
		}

		f := r.BootstrapCluster(configuration)
		if err := f.Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
			return nil, fmt.Errorf("failed to bootstrap cluster: %w", err)
		}
	}

	return &Node{
		id:        config.NodeID,
		raft:      r,
		fsm:       fsm,
		transport: transport,
		logStore:  store,
	}, nil
}

// Apply replicates a command and returns the FSM's verdict on it. A command
// without a timestamp takes the time its log entry was appended.
func (n *Node) Apply(cmd *models.Command) error {
	data, err := cmd.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	future := n.raft.Apply(data, applyTimeout)
	if err := future.Error(); err != nil {
		if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) {
			return fmt.Errorf("%w: leader is %q", ErrNotLeader, n.LeaderAddress())
		}
		return fmt.Errorf("failed to apply command to Raft log: %w", err)
	}

	if appErr, ok := future.Response().(error); ok && appErr != nil {
		return appErr
	}
	return nil
}

// Join adds a voter to the cluster. Only the leader can do this.
func (n *Node) Join(nodeID, addr string) error {
	if !n.Leader() {
		return ErrNotLeader
	}
	return n.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 0).Error()
}

// Leave removes a server from the cluster. Only the leader can do this.
func (n *Node) Leave(nodeID string) error {
	if !n.Leader() {
		return ErrNotLeader
	}
	return n.raft.RemoveServer(raft.ServerID(nodeID), 0, 0).Error()
}

// FSM returns the state machine
func (n *Node) FSM() *FSM {
	return n.fsm
}

// ID returns the node ID
func (n *Node) ID() string {
	return n.id
}

// Leader returns true if this node is the leader
func (n *Node) Leader() bool {
	return n.raft.State() == raft.Leader
}

// LeaderAddress returns the address of the current leader
func (n *Node) LeaderAddress() string {
	addr, _ := n.raft.LeaderWithID()
	return string(addr)
}

// State returns the current state of the Raft node
func (n *Node) State() string {
	return n.raft.State().String()
}

// Stats returns raft internals for diagnostics
func (n *Node) Stats() map[string]string {
	return n.raft.Stats()
}

// Shutdown stops the Raft node and closes its stores
func (n *Node) Shutdown() error {
	var errs []error
	if err := n.raft.Shutdown().Error(); err != nil {
		errs = append(errs, err)
	}
	if err := n.transport.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := n.logStore.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

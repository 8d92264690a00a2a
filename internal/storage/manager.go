package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/balsa-asanovic/agama/internal/logging"
)

var log = logging.L("storage")

// Discoverer inventories the block devices of the system.
type Discoverer interface {
	Discover(ctx context.Context) (*Topology, error)
}

// Manager owns the probed topology snapshot and the current proposal.
// It is the single commit point for negotiated proposals.
type Manager struct {
	mu         sync.Mutex
	discoverer Discoverer
	probed     *Topology
	proposal   *Proposal
}

// NewManager creates a Manager that probes through the given discoverer.
func NewManager(discoverer Discoverer) *Manager {
	return &Manager{discoverer: discoverer}
}

// Probe replaces the topology snapshot wholesale and drops any
// proposal computed against the previous snapshot.
func (m *Manager) Probe(ctx context.Context) error {
	topology, err := m.discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("storage discovery: %w", err)
	}

	m.mu.Lock()
	m.probed = topology
	m.proposal = nil
	m.mu.Unlock()

	log.Info("storage probed", "disks", len(topology.Disks))
	return nil
}

// ProbedTopology returns a deep copy of the last probed topology, or
// nil when Probe has not run yet.
func (m *Manager) ProbedTopology() *Topology {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probed == nil {
		return nil
	}
	return m.probed.Clone()
}

// Disks returns the discovered disks in discovery order.
func (m *Manager) Disks() []Disk {
	topology := m.ProbedTopology()
	if topology == nil {
		return nil
	}
	return topology.Disks
}

// CurrentProposal returns the committed proposal, or nil.
func (m *Manager) CurrentProposal() *Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposal
}

// SetProposal commits a proposal into the current-proposal slot.
func (m *Manager) SetProposal(proposal *Proposal) {
	m.mu.Lock()
	m.proposal = proposal
	m.mu.Unlock()
}

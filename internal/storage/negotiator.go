package storage

import (
	"context"
	"fmt"
)

// Negotiator turns a candidate disk into a committed proposal, or
// reports that no feasible layout exists for it. It may be called any
// number of times with different disks; every attempt starts from a
// stripped clone of the probed topology, so earlier attempts leave no
// residue.
type Negotiator struct {
	manager  *Manager
	engine   ProposalEngine
	settings ProposalSettings
}

// NewNegotiator creates a Negotiator committing into manager.
// settings provides the proposal tunables; its candidate device list
// is overridden per call.
func NewNegotiator(manager *Manager, engine ProposalEngine, settings ProposalSettings) *Negotiator {
	return &Negotiator{manager: manager, engine: engine, settings: settings}
}

// ProposeFor computes and, when feasible, commits a proposal that uses
// exactly the given disk. Returns false with a nil error when the disk
// yields no feasible layout; nothing is committed in that case.
func (n *Negotiator) ProposeFor(ctx context.Context, diskID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	probed := n.manager.ProbedTopology()
	if probed == nil {
		return false, fmt.Errorf("storage has not been probed")
	}

	// Work on a stripped clone so repeated negotiation is idempotent.
	clone := probed.Clone()
	clone.StripPartitions()

	settings := n.settings
	settings.CandidateDevices = []string{diskID}

	proposal, err := n.engine.GuidedProposal(clone, settings)
	if err != nil {
		return false, fmt.Errorf("guided proposal for %s: %w", diskID, err)
	}

	if !proposal.Feasible {
		log.Info("proposal infeasible", "disk", diskID, "reason", proposal.Reason)
		return false, nil
	}

	n.manager.SetProposal(proposal)
	log.Info("proposal committed", "disk", diskID, "partitions", len(proposal.Partitions))
	return true, nil
}

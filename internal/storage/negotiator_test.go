package storage

import (
	"context"
	"testing"
)

type staticDiscoverer struct {
	topology *Topology
	err      error
}

func (d *staticDiscoverer) Discover(ctx context.Context) (*Topology, error) {
	return d.topology, d.err
}

// recordingEngine wraps GuidedEngine and remembers the topologies it
// was asked to compute against.
type recordingEngine struct {
	inner      ProposalEngine
	topologies []*Topology
	settings   []ProposalSettings
}

func (e *recordingEngine) GuidedProposal(topology *Topology, settings ProposalSettings) (*Proposal, error) {
	e.topologies = append(e.topologies, topology)
	e.settings = append(e.settings, settings)
	return e.inner.GuidedProposal(topology, settings)
}

func probedManager(t *testing.T) *Manager {
	t.Helper()
	manager := NewManager(&staticDiscoverer{topology: testTopology()})
	if err := manager.Probe(context.Background()); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	return manager
}

func TestProposeForCommitsFeasibleProposal(t *testing.T) {
	manager := probedManager(t)
	negotiator := NewNegotiator(manager, NewGuidedEngine(), ProposalSettings{Filesystem: "btrfs"})

	ok, err := negotiator.ProposeFor(context.Background(), "sda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected feasible proposal for sda")
	}

	proposal := manager.CurrentProposal()
	if proposal == nil || proposal.Disk != "sda" {
		t.Fatalf("expected committed proposal for sda, got %+v", proposal)
	}
}

func TestProposeForInfeasibleCommitsNothing(t *testing.T) {
	manager := probedManager(t)
	negotiator := NewNegotiator(manager, NewGuidedEngine(), ProposalSettings{Filesystem: "btrfs"})

	ok, err := negotiator.ProposeFor(context.Background(), "sdz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("unknown disk must be infeasible")
	}
	if manager.CurrentProposal() != nil {
		t.Fatal("infeasible attempt must not commit a proposal")
	}
}

func TestProposeForKeepsPriorProposalOnInfeasibility(t *testing.T) {
	manager := probedManager(t)
	negotiator := NewNegotiator(manager, NewGuidedEngine(), ProposalSettings{Filesystem: "btrfs"})

	if ok, _ := negotiator.ProposeFor(context.Background(), "sda"); !ok {
		t.Fatal("sda should be feasible")
	}
	if ok, _ := negotiator.ProposeFor(context.Background(), "sdc"); ok {
		t.Fatal("sdc should be infeasible")
	}

	proposal := manager.CurrentProposal()
	if proposal == nil || proposal.Disk != "sda" {
		t.Fatalf("prior proposal should survive a failed attempt, got %+v", proposal)
	}
}

func TestProposeForStartsFromStrippedTopology(t *testing.T) {
	manager := probedManager(t)
	engine := &recordingEngine{inner: NewGuidedEngine()}
	negotiator := NewNegotiator(manager, engine, ProposalSettings{Filesystem: "btrfs"})

	if ok, _ := negotiator.ProposeFor(context.Background(), "sda"); !ok {
		t.Fatal("sda should be feasible")
	}
	if ok, _ := negotiator.ProposeFor(context.Background(), "sdb"); !ok {
		t.Fatal("sdb should be feasible")
	}

	for i, topology := range engine.topologies {
		for _, disk := range topology.Disks {
			if len(disk.Partitions) != 0 {
				t.Fatalf("attempt %d saw disk %s with %d leftover partitions", i, disk.Name, len(disk.Partitions))
			}
		}
	}

	// The probed snapshot itself must be untouched by the stripping.
	probed := manager.ProbedTopology()
	sda, _ := probed.FindDisk("sda")
	if len(sda.Partitions) != 1 {
		t.Fatalf("probed topology was mutated: %+v", sda)
	}
}

func TestProposeForRestrictsCandidatesToExactlyOneDisk(t *testing.T) {
	manager := probedManager(t)
	engine := &recordingEngine{inner: NewGuidedEngine()}
	negotiator := NewNegotiator(manager, engine, ProposalSettings{
		Filesystem:       "btrfs",
		CandidateDevices: []string{"sda", "sdb", "sdc"},
	})

	if _, err := negotiator.ProposeFor(context.Background(), "sdb"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := engine.settings[0].CandidateDevices
	if len(got) != 1 || got[0] != "sdb" {
		t.Fatalf("candidate devices = %v, want exactly [sdb]", got)
	}
}

func TestProposeForWithoutProbeFails(t *testing.T) {
	manager := NewManager(&staticDiscoverer{topology: testTopology()})
	negotiator := NewNegotiator(manager, NewGuidedEngine(), ProposalSettings{Filesystem: "btrfs"})

	if _, err := negotiator.ProposeFor(context.Background(), "sda"); err == nil {
		t.Fatal("expected error before storage probe")
	}
}

func TestManagerProbeReplacesSnapshotAndDropsProposal(t *testing.T) {
	discoverer := &staticDiscoverer{topology: testTopology()}
	manager := NewManager(discoverer)
	if err := manager.Probe(context.Background()); err != nil {
		t.Fatal(err)
	}
	manager.SetProposal(&Proposal{Disk: "sda", Feasible: true})

	discoverer.topology = &Topology{Disks: []Disk{{Name: "vda", SizeBytes: 32 << 30}}}
	if err := manager.Probe(context.Background()); err != nil {
		t.Fatal(err)
	}

	if manager.CurrentProposal() != nil {
		t.Fatal("re-probe must drop the stale proposal")
	}
	if names := manager.ProbedTopology().DiskNames(); len(names) != 1 || names[0] != "vda" {
		t.Fatalf("snapshot not replaced, got %v", names)
	}
}

package storage

import "fmt"

// Minimum disk size the guided layout can live on.
const MinDiskBytes = 5 << 30 // 5 GiB

const (
	efiPartBytes  = 512 << 20
	bootPartBytes = 8 << 20
)

// ProposalEngine computes a storage proposal for a topology snapshot.
// The returned proposal carries its own feasibility flag; the error
// return is reserved for computation failures.
type ProposalEngine interface {
	GuidedProposal(topology *Topology, settings ProposalSettings) (*Proposal, error)
}

// GuidedEngine produces the default single-disk layout: a firmware
// partition (ESP or BIOS boot), optional swap, and a root filesystem
// spanning the rest of the disk.
type GuidedEngine struct{}

// NewGuidedEngine creates a GuidedEngine.
func NewGuidedEngine() *GuidedEngine {
	return &GuidedEngine{}
}

func (e *GuidedEngine) GuidedProposal(topology *Topology, settings ProposalSettings) (*Proposal, error) {
	if topology == nil {
		return nil, fmt.Errorf("no topology to propose against")
	}
	if len(settings.CandidateDevices) == 0 {
		return &Proposal{Feasible: false, Reason: "no candidate devices"}, nil
	}

	disk, ok := findCandidate(topology, settings.CandidateDevices)
	if !ok {
		return &Proposal{
			Feasible: false,
			Reason:   fmt.Sprintf("none of the candidate devices %v is present", settings.CandidateDevices),
		}, nil
	}

	swapBytes := settings.SwapSizeMB << 20
	reserved := uint64(bootPartBytes)
	if settings.EFI {
		reserved = efiPartBytes
	}
	if disk.SizeBytes < MinDiskBytes+reserved+swapBytes {
		return &Proposal{
			Disk:     disk.Name,
			Feasible: false,
			Reason:   fmt.Sprintf("disk %s is too small (%d bytes)", disk.Name, disk.SizeBytes),
		}, nil
	}

	proposal := &Proposal{
		Disk:      disk.Name,
		UseLVM:    settings.UseLVM,
		Encrypted: settings.EncryptionPassword != "",
		Feasible:  true,
	}

	number := 1
	if settings.EFI {
		proposal.Partitions = append(proposal.Partitions, PlannedPartition{
			Disk:       disk.Name,
			Number:     number,
			Role:       RoleEFI,
			SizeBytes:  efiPartBytes,
			Filesystem: "vfat",
			MountPoint: "/boot/efi",
		})
	} else {
		proposal.Partitions = append(proposal.Partitions, PlannedPartition{
			Disk:      disk.Name,
			Number:    number,
			Role:      RoleBoot,
			SizeBytes: bootPartBytes,
		})
	}

	if swapBytes > 0 {
		number++
		proposal.Partitions = append(proposal.Partitions, PlannedPartition{
			Disk:       disk.Name,
			Number:     number,
			Role:       RoleSwap,
			SizeBytes:  swapBytes,
			Filesystem: "swap",
		})
	}

	number++
	proposal.Partitions = append(proposal.Partitions, PlannedPartition{
		Disk:       disk.Name,
		Number:     number,
		Role:       RoleRoot,
		Filesystem: settings.Filesystem,
		MountPoint: "/",
	})

	return proposal, nil
}

func findCandidate(topology *Topology, candidates []string) (Disk, bool) {
	for _, name := range candidates {
		if disk, ok := topology.FindDisk(name); ok {
			return disk, true
		}
	}
	return Disk{}, false
}

package storage

// Partition is a block device sitting on a disk, as discovered or as
// planned by a proposal.
type Partition struct {
	Name       string `json:"name"` // kernel name, e.g. sda1
	SizeBytes  uint64 `json:"sizeBytes"`
	Filesystem string `json:"filesystem,omitempty"`
	MountPoint string `json:"mountPoint,omitempty"`
}

// Disk describes one discovered disk device.
type Disk struct {
	Name       string      `json:"name"`   // kernel name, e.g. sda
	Device     string      `json:"device"` // /dev/sda
	SizeBytes  uint64      `json:"sizeBytes"`
	Model      string      `json:"model,omitempty"`
	Vendor     string      `json:"vendor,omitempty"`
	Removable  bool        `json:"removable"`
	Partitions []Partition `json:"partitions,omitempty"`
}

// Clone returns a deep copy of the disk.
func (d Disk) Clone() Disk {
	out := d
	out.Partitions = make([]Partition, len(d.Partitions))
	copy(out.Partitions, d.Partitions)
	return out
}

// Topology is a snapshot of the discovered storage devices. It is
// immutable at capture; proposal computation works on clones.
type Topology struct {
	Disks []Disk `json:"disks"`
}

// Clone returns a deep copy of the topology.
func (t *Topology) Clone() *Topology {
	out := &Topology{Disks: make([]Disk, 0, len(t.Disks))}
	for _, disk := range t.Disks {
		out.Disks = append(out.Disks, disk.Clone())
	}
	return out
}

// StripPartitions removes every partition from every disk. Proposal
// computation starts from stripped clones so repeated negotiation for
// different disks never accumulates leftovers from earlier attempts.
func (t *Topology) StripPartitions() {
	for i := range t.Disks {
		t.Disks[i].Partitions = nil
	}
}

// FindDisk looks a disk up by kernel name.
func (t *Topology) FindDisk(name string) (Disk, bool) {
	for _, disk := range t.Disks {
		if disk.Name == name {
			return disk, true
		}
	}
	return Disk{}, false
}

// DiskNames returns the kernel names in discovery order.
func (t *Topology) DiskNames() []string {
	names := make([]string, 0, len(t.Disks))
	for _, disk := range t.Disks {
		names = append(names, disk.Name)
	}
	return names
}

// Partition roles used by the guided proposal.
const (
	RoleEFI  = "efi"
	RoleBoot = "boot"
	RoleSwap = "swap"
	RoleRoot = "root"
)

// PlannedPartition is one partition a proposal wants to create.
type PlannedPartition struct {
	Disk       string `json:"disk"`
	Number     int    `json:"number"`
	Role       string `json:"role"`
	SizeBytes  uint64 `json:"sizeBytes"` // 0 = rest of the disk
	Filesystem string `json:"filesystem,omitempty"`
	MountPoint string `json:"mountPoint,omitempty"`
}

// ProposalSettings tune the guided proposal computation.
type ProposalSettings struct {
	// CandidateDevices restricts which disks the proposal may use.
	CandidateDevices   []string
	Filesystem         string
	UseLVM             bool
	EncryptionPassword string
	SwapSizeMB         uint64
	EFI                bool
}

// Proposal is a computed, not-yet-applied storage layout. An
// infeasible proposal carries the reason and must never be committed.
type Proposal struct {
	Disk       string             `json:"disk"`
	Partitions []PlannedPartition `json:"partitions,omitempty"`
	UseLVM     bool               `json:"useLvm"`
	Encrypted  bool               `json:"encrypted"`
	Feasible   bool               `json:"feasible"`
	Reason     string             `json:"reason,omitempty"`
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/balsa-asanovic/agama/internal/executor"
)

// Partitioner applies a committed proposal to the real disk and mounts
// the new filesystems under the installation target.
type Partitioner struct {
	runner executor.Runner
}

// NewPartitioner creates a Partitioner running commands through runner.
func NewPartitioner(runner executor.Runner) *Partitioner {
	return &Partitioner{runner: runner}
}

// Apply partitions the proposal's disk, creates the filesystems and
// mounts them at target. The disk's previous content is destroyed.
func (p *Partitioner) Apply(ctx context.Context, proposal *Proposal, target string) error {
	if proposal == nil {
		return fmt.Errorf("no proposal to apply")
	}
	if !proposal.Feasible {
		return fmt.Errorf("refusing to apply infeasible proposal for %s: %s", proposal.Disk, proposal.Reason)
	}

	device := "/dev/" + proposal.Disk

	if _, err := p.runner.Run(ctx, "parted", "-s", device, "mklabel", "gpt"); err != nil {
		return fmt.Errorf("creating partition table on %s: %w", device, err)
	}

	var offsetMiB uint64 = 1
	for i, part := range proposal.Partitions {
		var end string
		if part.SizeBytes == 0 || i == len(proposal.Partitions)-1 {
			end = "100%"
		} else {
			end = fmt.Sprintf("%dMiB", offsetMiB+part.SizeBytes>>20)
		}

		args := []string{"-s", device, "mkpart", part.Role, fmt.Sprintf("%dMiB", offsetMiB), end}
		if _, err := p.runner.Run(ctx, "parted", args...); err != nil {
			return fmt.Errorf("creating %s partition on %s: %w", part.Role, device, err)
		}
		if part.Role == RoleBoot {
			num := fmt.Sprintf("%d", part.Number)
			if _, err := p.runner.Run(ctx, "parted", "-s", device, "set", num, "bios_grub", "on"); err != nil {
				return fmt.Errorf("flagging bios boot partition: %w", err)
			}
		}
		offsetMiB += part.SizeBytes >> 20

		if err := p.makeFilesystem(ctx, proposal, part); err != nil {
			return err
		}
	}

	if err := p.mountAll(ctx, proposal, target); err != nil {
		return err
	}

	unix.Sync()
	return nil
}

func (p *Partitioner) makeFilesystem(ctx context.Context, proposal *Proposal, part PlannedPartition) error {
	device := partitionDevice(proposal.Disk, part.Number)

	switch part.Filesystem {
	case "":
		return nil
	case "swap":
		if _, err := p.runner.Run(ctx, "mkswap", device); err != nil {
			return fmt.Errorf("formatting swap on %s: %w", device, err)
		}
	case "vfat":
		if _, err := p.runner.Run(ctx, "mkfs.vfat", "-F32", device); err != nil {
			return fmt.Errorf("formatting %s: %w", device, err)
		}
	case "ext4":
		// mke2fs takes -F to force; -f means fragment size there.
		if _, err := p.runner.Run(ctx, "mkfs.ext4", "-F", device); err != nil {
			return fmt.Errorf("formatting %s as ext4: %w", device, err)
		}
	default:
		if _, err := p.runner.Run(ctx, "mkfs."+part.Filesystem, "-f", device); err != nil {
			return fmt.Errorf("formatting %s as %s: %w", device, part.Filesystem, err)
		}
	}
	return nil
}

func (p *Partitioner) mountAll(ctx context.Context, proposal *Proposal, target string) error {
	// Root first so nested mount points exist below it.
	for _, part := range proposal.Partitions {
		if part.MountPoint != "/" {
			continue
		}
		if err := p.mount(ctx, proposal.Disk, part, target); err != nil {
			return err
		}
	}
	for _, part := range proposal.Partitions {
		if part.MountPoint == "" || part.MountPoint == "/" {
			continue
		}
		if err := p.mount(ctx, proposal.Disk, part, target); err != nil {
			return err
		}
	}
	return nil
}

func (p *Partitioner) mount(ctx context.Context, disk string, part PlannedPartition, target string) error {
	mountPoint := filepath.Join(target, part.MountPoint)
	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		return fmt.Errorf("creating mount point %s: %w", mountPoint, err)
	}

	device := partitionDevice(disk, part.Number)
	if _, err := p.runner.Run(ctx, "mount", device, mountPoint); err != nil {
		return fmt.Errorf("mounting %s at %s: %w", device, mountPoint, err)
	}
	return nil
}

// partitionDevice maps a disk name and partition number to the kernel
// device path, accounting for the nvme/mmcblk "p" infix.
func partitionDevice(disk string, number int) string {
	last := disk[len(disk)-1]
	if last >= '0' && last <= '9' {
		return fmt.Sprintf("/dev/%sp%d", disk, number)
	}
	return fmt.Sprintf("/dev/%s%d", disk, number)
}

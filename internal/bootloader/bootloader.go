// Package bootloader computes and writes the boot configuration for a
// finished installation.
package bootloader

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/balsa-asanovic/agama/internal/executor"
	"github.com/balsa-asanovic/agama/internal/logging"
)

var log = logging.L("bootloader")

// Boot modes.
const (
	ModeEFI  = "efi"
	ModeBIOS = "bios"
)

const efiFirmwareDir = "/sys/firmware/efi"

// Options name the disk the bootloader goes to.
type Options struct {
	Disk string
}

// Proposal is the computed boot setup; it is not written to disk until
// WriteFinish runs.
type Proposal struct {
	BootMode string `json:"bootMode"`
	Device   string `json:"device"`
}

// Service proposes and installs the GRUB2 bootloader.
type Service struct {
	mu       sync.Mutex
	runner   executor.Runner
	efiDir   string
	proposal *Proposal
}

// NewService creates a Service running commands through runner.
func NewService(runner executor.Runner) *Service {
	return &Service{runner: runner, efiDir: efiFirmwareDir}
}

// MakeProposal computes the boot setup for the given options and keeps
// it for the following WriteFinish.
func (s *Service) MakeProposal(ctx context.Context, opts Options) (Proposal, error) {
	if opts.Disk == "" {
		return Proposal{}, fmt.Errorf("no disk selected for the bootloader")
	}

	proposal := Proposal{
		BootMode: ModeBIOS,
		Device:   "/dev/" + opts.Disk,
	}
	if s.efiBooted() {
		proposal.BootMode = ModeEFI
	}

	s.mu.Lock()
	s.proposal = &proposal
	s.mu.Unlock()

	return proposal, nil
}

// WriteFinish installs the proposed bootloader into the target system.
// MakeProposal must have run first.
func (s *Service) WriteFinish(ctx context.Context, target string) error {
	s.mu.Lock()
	proposal := s.proposal
	s.mu.Unlock()

	if proposal == nil {
		return fmt.Errorf("no bootloader proposal")
	}

	switch proposal.BootMode {
	case ModeEFI:
		args := []string{"--target=x86_64-efi", "--efi-directory=/boot/efi", "--bootloader-id=agama"}
		if _, err := s.runner.RunInTarget(ctx, target, "grub2-install", args...); err != nil {
			return fmt.Errorf("installing EFI bootloader: %w", err)
		}
	case ModeBIOS:
		if _, err := s.runner.RunInTarget(ctx, target, "grub2-install", proposal.Device); err != nil {
			return fmt.Errorf("installing BIOS bootloader on %s: %w", proposal.Device, err)
		}
	default:
		return fmt.Errorf("unknown boot mode %q", proposal.BootMode)
	}

	if _, err := s.runner.RunInTarget(ctx, target, "grub2-mkconfig", "-o", "/boot/grub2/grub.cfg"); err != nil {
		return fmt.Errorf("generating bootloader config: %w", err)
	}

	log.Info("bootloader written", "mode", proposal.BootMode, "device", proposal.Device)
	return nil
}

func (s *Service) efiBooted() bool {
	info, err := os.Stat(s.efiDir)
	return err == nil && info.IsDir()
}

// FirmwareIsEFI reports whether the running system booted through EFI
// firmware. The storage proposal uses it to decide between an ESP and
// a BIOS boot partition.
func FirmwareIsEFI() bool {
	info, err := os.Stat(efiFirmwareDir)
	return err == nil && info.IsDir()
}

package bootloader

import (
	"context"
	"strings"
	"testing"

	"github.com/balsa-asanovic/agama/internal/executor"
)

type fakeRunner struct {
	commands []string
	fail     bool
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (executor.Output, error) {
	return r.record(name, args)
}

func (r *fakeRunner) RunInTarget(ctx context.Context, target, name string, args ...string) (executor.Output, error) {
	return r.record("chroot "+target+" "+name, args)
}

func (r *fakeRunner) record(name string, args []string) (executor.Output, error) {
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))
	if r.fail {
		return executor.Output{ExitCode: 1}, context.Canceled
	}
	return executor.Output{}, nil
}

func TestMakeProposalPicksBootDevice(t *testing.T) {
	svc := NewService(&fakeRunner{})
	svc.efiDir = t.TempDir() // simulate EFI firmware

	proposal, err := svc.MakeProposal(context.Background(), Options{Disk: "sda"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proposal.Device != "/dev/sda" {
		t.Fatalf("device = %q, want /dev/sda", proposal.Device)
	}
	if proposal.BootMode != ModeEFI {
		t.Fatalf("mode = %q, want efi", proposal.BootMode)
	}
}

func TestMakeProposalBIOSFallback(t *testing.T) {
	svc := NewService(&fakeRunner{})
	svc.efiDir = "/nonexistent/efi"

	proposal, err := svc.MakeProposal(context.Background(), Options{Disk: "vda"})
	if err != nil {
		t.Fatal(err)
	}
	if proposal.BootMode != ModeBIOS {
		t.Fatalf("mode = %q, want bios", proposal.BootMode)
	}
}

func TestMakeProposalRequiresDisk(t *testing.T) {
	svc := NewService(&fakeRunner{})
	if _, err := svc.MakeProposal(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for missing disk")
	}
}

func TestWriteFinishBIOSCommands(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewService(runner)
	svc.efiDir = "/nonexistent/efi"

	if _, err := svc.MakeProposal(context.Background(), Options{Disk: "sda"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.WriteFinish(context.Background(), "/mnt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.commands) != 2 {
		t.Fatalf("expected grub2-install + grub2-mkconfig, got %v", runner.commands)
	}
	if !strings.Contains(runner.commands[0], "chroot /mnt grub2-install /dev/sda") {
		t.Fatalf("unexpected install command: %q", runner.commands[0])
	}
	if !strings.Contains(runner.commands[1], "grub2-mkconfig") {
		t.Fatalf("unexpected config command: %q", runner.commands[1])
	}
}

func TestWriteFinishWithoutProposal(t *testing.T) {
	svc := NewService(&fakeRunner{})
	if err := svc.WriteFinish(context.Background(), "/mnt"); err == nil {
		t.Fatal("expected error without a proposal")
	}
}

package installer

import (
	"context"
	"fmt"

	"github.com/balsa-asanovic/agama/internal/bootloader"
	"github.com/balsa-asanovic/agama/internal/progress"
)

// Install executes the installation phases in strict order:
// partitioning, package installation, bootloader installation. It
// expects a successful Probe and valid selections; that is not
// re-validated here beyond what the phases themselves require.
//
// Any phase error propagates unmodified and the status intentionally
// stays at Installing on that path, so an operator can see where the
// run stopped. Only a completed run transitions back to Idle.
func (m *Manager) Install(ctx context.Context) error {
	if !m.acquire() {
		return ErrBusy
	}
	defer m.release()

	m.controller.transition(StatusInstalling)

	opts := m.Options()
	log.Info("starting installation", "target", Target, "options", opts)

	if err := m.partitioning(ctx); err != nil {
		return err
	}
	if err := m.packageInstallation(ctx); err != nil {
		return err
	}
	if err := m.bootloaderInstallation(ctx, opts.Disk); err != nil {
		return err
	}

	m.controller.transition(StatusIdle)
	log.Info("installation finished")
	return nil
}

func (m *Manager) partitioning(ctx context.Context) error {
	return m.deps.Reporter.WithPhase(PhasePartitioning, 1, func(p *progress.Phase) error {
		proposal := m.deps.Storage.CurrentProposal()
		if proposal == nil {
			return fmt.Errorf("no storage proposal to apply")
		}

		p.Step(fmt.Sprintf("preparing disk %s", proposal.Disk))
		return m.deps.Partitioner.Apply(ctx, proposal, Target)
	})
}

func (m *Manager) packageInstallation(ctx context.Context) error {
	return m.deps.Reporter.WithPhase(PhasePackages, 0, func(p *progress.Phase) error {
		return m.deps.Software.Install(ctx, Target, p.Forward)
	})
}

func (m *Manager) bootloaderInstallation(ctx context.Context, disk string) error {
	return m.deps.Reporter.WithPhase(PhaseBootloader, 2, func(p *progress.Phase) error {
		p.Step("calculating bootloader proposal")
		proposal, err := m.deps.Bootloader.MakeProposal(ctx, bootloader.Options{Disk: disk})
		if err != nil {
			return err
		}
		log.Info("bootloader proposal", "mode", proposal.BootMode, "device", proposal.Device)

		p.Step("writing bootloader")
		return m.deps.Bootloader.WriteFinish(ctx, Target)
	})
}

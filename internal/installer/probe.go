package installer

import (
	"context"
	"fmt"

	"github.com/balsa-asanovic/agama/internal/storage"
)

// Probe inventories languages, software products and storage devices,
// then populates the default selections. It reports success as a
// boolean: internal errors are logged, never surfaced. The status is
// always reset to Idle before returning, even when a step fails.
func (m *Manager) Probe(ctx context.Context) bool {
	if !m.acquire() {
		log.Warn("probe rejected, another operation is in progress")
		return false
	}
	defer m.release()

	m.controller.transition(StatusProbing)
	defer m.controller.transition(StatusIdle)

	if err := m.probe(ctx); err != nil {
		log.Error("probe failed", "error", err)
		return false
	}

	log.Info("probe finished", "options", m.Options())
	return true
}

// probe runs the pipeline. Results are staged locally and committed in
// one step at the end, so a failed probe leaves the options unchanged.
func (m *Manager) probe(ctx context.Context) error {
	languages, err := m.deps.Languages.Languages()
	if err != nil {
		return fmt.Errorf("fetching language catalog: %w", err)
	}
	if _, ok := languages[m.deps.DefaultLanguage]; !ok {
		return fmt.Errorf("default language %q is not in the catalog", m.deps.DefaultLanguage)
	}

	if err := m.deps.Software.Probe(ctx); err != nil {
		return fmt.Errorf("software probe: %w", err)
	}
	if err := m.deps.Software.Propose(ctx); err != nil {
		return fmt.Errorf("software proposal: %w", err)
	}
	product := m.deps.Software.CurrentProduct()

	if err := m.deps.Storage.Probe(ctx); err != nil {
		return fmt.Errorf("storage probe: %w", err)
	}
	disks := m.deps.Storage.Disks()
	if len(disks) == 0 {
		return fmt.Errorf("no disks discovered")
	}

	disk, err := m.defaultDisk(ctx, disks)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.languages = languages
	m.disks = disks
	m.opts = Options{
		Language: m.deps.DefaultLanguage,
		Product:  product,
		Disk:     disk,
	}
	m.mu.Unlock()

	return nil
}

// defaultDisk negotiates a proposal for the discovered disks in order
// and returns the first one with a feasible layout.
func (m *Manager) defaultDisk(ctx context.Context, disks []storage.Disk) (string, error) {
	for _, disk := range disks {
		ok, err := m.deps.Negotiator.ProposeFor(ctx, disk.Name)
		if err != nil {
			return "", fmt.Errorf("negotiating proposal for %s: %w", disk.Name, err)
		}
		if ok {
			return disk.Name, nil
		}
	}
	return "", fmt.Errorf("no disk yields a feasible storage proposal")
}

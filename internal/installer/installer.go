// Package installer orchestrates the installation workflow: probing
// system resources, negotiating the storage layout, and executing the
// partitioning, package installation and bootloader phases.
package installer

import (
	"context"
	"sync"

	"github.com/balsa-asanovic/agama/internal/bootloader"
	"github.com/balsa-asanovic/agama/internal/l10n"
	"github.com/balsa-asanovic/agama/internal/logging"
	"github.com/balsa-asanovic/agama/internal/progress"
	"github.com/balsa-asanovic/agama/internal/software"
	"github.com/balsa-asanovic/agama/internal/storage"
)

var log = logging.L("installer")

// Target is the fixed mount point the new system is installed under.
const Target = "/mnt"

// Phase names reported through the progress reporter.
const (
	PhasePartitioning = "partitioning"
	PhasePackages     = "package_installation"
	PhaseBootloader   = "bootloader_installation"
)

// LanguageCatalog serves the installable locales.
type LanguageCatalog interface {
	Languages() (map[string]l10n.Language, error)
}

// SoftwareService drives product selection and package installation.
type SoftwareService interface {
	Probe(ctx context.Context) error
	Propose(ctx context.Context) error
	SelectProduct(ctx context.Context, id string) error
	Products() []software.Product
	CurrentProduct() string
	Install(ctx context.Context, target string, cb progress.Callback) error
}

// StorageSystem owns disk discovery and the committed proposal.
type StorageSystem interface {
	Probe(ctx context.Context) error
	Disks() []storage.Disk
	CurrentProposal() *storage.Proposal
}

// DiskNegotiator turns a candidate disk into a committed proposal.
type DiskNegotiator interface {
	ProposeFor(ctx context.Context, diskID string) (bool, error)
}

// Partitioner applies a committed proposal to the disk.
type Partitioner interface {
	Apply(ctx context.Context, proposal *storage.Proposal, target string) error
}

// BootloaderService proposes and writes the boot configuration.
type BootloaderService interface {
	MakeProposal(ctx context.Context, opts bootloader.Options) (bootloader.Proposal, error)
	WriteFinish(ctx context.Context, target string) error
}

// Options are the caller-adjustable selections. Each non-empty field
// has passed validation by its owning subsystem at assignment time.
type Options struct {
	Disk     string `json:"disk,omitempty"`
	Product  string `json:"product,omitempty"`
	Language string `json:"language,omitempty"`
}

// Deps are the collaborators injected into the orchestrator.
type Deps struct {
	Languages   LanguageCatalog
	Software    SoftwareService
	Storage     StorageSystem
	Negotiator  DiskNegotiator
	Partitioner Partitioner
	Bootloader  BootloaderService

	// Reporter receives the fine-grained installation progress.
	// A fresh one is created when nil.
	Reporter *progress.Reporter

	// DefaultLanguage is selected during probing; it must exist in
	// the language catalog. Defaults to en_US.
	DefaultLanguage string
}

// Manager is the orchestrator. One instance represents exactly one
// installation run; Probe and Install must not run concurrently and an
// overlapping call is rejected.
type Manager struct {
	deps       Deps
	controller statusController

	// inFlight serializes Probe/Install on this instance.
	inFlight chan struct{}

	mu        sync.Mutex
	opts      Options
	languages map[string]l10n.Language
	disks     []storage.Disk
}

// New creates a Manager in the Idle status.
func New(deps Deps) *Manager {
	if deps.Reporter == nil {
		deps.Reporter = progress.NewReporter()
	}
	if deps.DefaultLanguage == "" {
		deps.DefaultLanguage = "en_US"
	}

	m := &Manager{
		deps:     deps,
		inFlight: make(chan struct{}, 1),
	}
	return m
}

// Status returns the current orchestrator status.
func (m *Manager) Status() Status {
	return m.controller.status()
}

// OnStatusChange registers a status listener. Listener failures are
// swallowed; see StatusListener.
func (m *Manager) OnStatusChange(listener StatusListener) {
	m.controller.subscribe(listener)
}

// Progress exposes the reporter so presenters can subscribe.
func (m *Manager) Progress() *progress.Reporter {
	return m.deps.Reporter
}

// Options returns the current selections.
func (m *Manager) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// Language returns the selected locale code, or "".
func (m *Manager) Language() string { return m.Options().Language }

// Product returns the selected product id, or "".
func (m *Manager) Product() string { return m.Options().Product }

// Disk returns the selected disk, or "".
func (m *Manager) Disk() string { return m.Options().Disk }

// Languages returns the catalog snapshot captured by the last probe.
func (m *Manager) Languages() map[string]l10n.Language {
	m.mu.Lock()
	defer m.mu.Unlock()

	languages := make(map[string]l10n.Language, len(m.languages))
	for code, lang := range m.languages {
		languages[code] = lang
	}
	return languages
}

// Disks returns the disks discovered by the last probe.
func (m *Manager) Disks() []storage.Disk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Disk(nil), m.disks...)
}

// Products returns the product catalog.
func (m *Manager) Products() []software.Product {
	return m.deps.Software.Products()
}

func (m *Manager) acquire() bool {
	select {
	case m.inFlight <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *Manager) release() {
	<-m.inFlight
}

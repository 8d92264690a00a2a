package software

import (
	"context"

	"github.com/balsa-asanovic/agama/internal/progress"
)

// Product describes one installable product.
type Product struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Patterns    []string `yaml:"patterns"`
}

// PackageProvider is implemented by package-manager backends.
type PackageProvider interface {
	ID() string
	Name() string
	// Refresh updates the provider's repository metadata.
	Refresh(ctx context.Context) error
	// InstallPatterns installs the given software patterns into the
	// target root, pushing per-package progress events as they happen.
	InstallPatterns(ctx context.Context, target string, patterns []string, cb progress.Callback) error
}

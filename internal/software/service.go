// Package software drives product selection and package installation
// through pluggable package-manager providers.
package software

import (
	"context"
	"fmt"
	"sync"

	"github.com/balsa-asanovic/agama/internal/logging"
	"github.com/balsa-asanovic/agama/internal/progress"
)

var log = logging.L("software")

// Service owns the product catalog, the selected product and the
// software proposal derived from it.
type Service struct {
	mu           sync.Mutex
	provider     PackageProvider
	productsFile string
	products     []Product
	current      string
	proposal     []string
}

// NewService creates a Service backed by the given provider. An empty
// productsFile selects the built-in product catalog.
func NewService(provider PackageProvider, productsFile string) *Service {
	return &Service{provider: provider, productsFile: productsFile}
}

// Probe loads the product catalog and refreshes the provider's
// repository metadata. The first catalog entry becomes the selection
// when none is set yet.
func (s *Service) Probe(ctx context.Context) error {
	products, err := loadProducts(s.productsFile)
	if err != nil {
		return err
	}

	if err := s.provider.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing %s metadata: %w", s.provider.ID(), err)
	}

	s.mu.Lock()
	s.products = products
	if s.current == "" {
		s.current = products[0].ID
	}
	s.mu.Unlock()

	log.Info("software probed", "products", len(products), "provider", s.provider.ID())
	return nil
}

// Propose computes the software proposal for the selected product: the
// set of patterns the installation phase will install.
func (s *Service) Propose(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) == 0 {
		return ErrNotProbed
	}

	product, ok := s.findProduct(s.current)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, s.current)
	}

	s.proposal = append([]string(nil), product.Patterns...)
	log.Info("software proposal", "product", product.ID, "patterns", s.proposal)
	return nil
}

// SelectProduct changes the selected product and recomputes the
// proposal. Unknown ids fail and leave the selection unchanged.
func (s *Service) SelectProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) == 0 {
		return ErrNotProbed
	}

	product, ok := s.findProduct(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}

	s.current = product.ID
	s.proposal = append([]string(nil), product.Patterns...)
	return nil
}

// Products returns the loaded catalog.
func (s *Service) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Product(nil), s.products...)
}

// CurrentProduct returns the selected product id, or "".
func (s *Service) CurrentProduct() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Install installs the proposed patterns into the target root,
// forwarding the provider's progress events to cb.
func (s *Service) Install(ctx context.Context, target string, cb progress.Callback) error {
	s.mu.Lock()
	patterns := append([]string(nil), s.proposal...)
	s.mu.Unlock()

	if len(patterns) == 0 {
		return ErrNoProposal
	}

	return s.provider.InstallPatterns(ctx, target, patterns, cb)
}

// caller must hold s.mu
func (s *Service) findProduct(id string) (Product, bool) {
	for _, product := range s.products {
		if product.ID == id {
			return product, true
		}
	}
	return Product{}, false
}

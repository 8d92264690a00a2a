package installer

import (
	"context"
	"fmt"
)

// SetLanguage selects the installation language. The code must be in
// the catalog snapshot captured by the last probe; otherwise the call
// fails with ErrInvalidSelection and the stored language is unchanged.
func (m *Manager) SetLanguage(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.languages[code]; !ok {
		return fmt.Errorf("%w: language %q is not available", ErrInvalidSelection, code)
	}

	m.opts.Language = code
	return nil
}

// SetProduct selects the product to install. Validation is delegated
// to the software subsystem; its rejection translates to
// ErrInvalidSelection and the stored product is unchanged.
func (m *Manager) SetProduct(ctx context.Context, id string) error {
	if err := m.deps.Software.SelectProduct(ctx, id); err != nil {
		return fmt.Errorf("%w: product %q: %v", ErrInvalidSelection, id, err)
	}

	m.mu.Lock()
	m.opts.Product = id
	m.mu.Unlock()
	return nil
}

// SetDisk selects the installation disk. The storage negotiator must
// commit a feasible proposal for it; an infeasible disk (including one
// that was never discovered) fails with ErrInvalidSelection and the
// previously stored disk is untouched.
func (m *Manager) SetDisk(ctx context.Context, id string) error {
	ok, err := m.deps.Negotiator.ProposeFor(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: disk %q: %v", ErrInvalidSelection, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: no feasible storage proposal for disk %q", ErrInvalidSelection, id)
	}

	m.mu.Lock()
	m.opts.Disk = id
	m.mu.Unlock()
	return nil
}

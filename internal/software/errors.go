package software

import "errors"

var (
	// ErrUnknownProduct is returned when a product id is not in the
	// loaded catalog.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrNotProbed is returned when an operation needs the product
	// catalog but Probe has not run.
	ErrNotProbed = errors.New("software has not been probed")

	// ErrNoProposal is returned when Install runs before Propose.
	ErrNoProposal = errors.New("no software proposal")
)

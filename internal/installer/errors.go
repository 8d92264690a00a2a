package installer

import "errors"

var (
	// ErrInvalidSelection is returned by the option setters when the
	// requested value is rejected by its owning subsystem. The stored
	// option is left unchanged.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrBusy is returned when a probe or installation is already
	// running on this orchestrator instance.
	ErrBusy = errors.New("another operation is in progress")
)

//go:build !linux

package storage

import (
	"context"
	"fmt"
	"runtime"
)

// UnsupportedDiscoverer is used on platforms the installer cannot
// target; Discover always fails.
type UnsupportedDiscoverer struct{}

// NewDiscoverer creates the platform discoverer.
func NewDiscoverer() *UnsupportedDiscoverer {
	return &UnsupportedDiscoverer{}
}

func (d *UnsupportedDiscoverer) Discover(ctx context.Context) (*Topology, error) {
	return nil, fmt.Errorf("storage discovery is not supported on %s", runtime.GOOS)
}

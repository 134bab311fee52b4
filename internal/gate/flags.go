// Package gate holds the process-wide admission policy: the maintenance
// flag and the ban check consulted before a job is created.
package gate

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MaintenanceSource reads the persisted maintenance setting
type MaintenanceSource interface {
	MaintenanceMode(ctx context.Context) (bool, error)
}

// Flags mirrors the persisted runtime settings into memory. Reads are lock
// free; writes happen only at explicit reload points.
type Flags struct {
	maintenance atomic.Bool
}

// NewFlags creates flags with maintenance off
func NewFlags() *Flags {
	return &Flags{}
}

// Maintenance reports whether maintenance mode is on
func (f *Flags) Maintenance() bool {
	return f.maintenance.Load()
}

// SetMaintenance overwrites the in-memory flag
func (f *Flags) SetMaintenance(on bool) {
	f.maintenance.Store(on)
}

// Reload refreshes the flags from their source of truth. On error the
// previous values are kept.
func (f *Flags) Reload(ctx context.Context, src MaintenanceSource) error {
	on, err := src.MaintenanceMode(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload maintenance flag: %w", err)
	}
	f.maintenance.Store(on)
	return nil
}

package config

import (
	"context"
	"fmt"
	"strconv"
)

// Settings keys in the settings table
const (
	KeyMaintenanceMode = "maintenance_mode"
	KeySearchEnabled   = "search_enabled"
)

// Default values
const (
	DefaultMaintenanceMode = false
	DefaultSearchEnabled   = true
)

// SettingStore is the key/value part of the persistence layer
type SettingStore interface {
	GetSetting(ctx context.Context, key, def string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Settings manages runtime settings. The store is the source of truth;
// nothing is cached here.
type Settings struct {
	store SettingStore
}

// NewSettings creates a new settings manager
func NewSettings(store SettingStore) *Settings {
	return &Settings{store: store}
}

// MaintenanceMode returns whether the bot is suspended for regular users
func (s *Settings) MaintenanceMode(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyMaintenanceMode, DefaultMaintenanceMode)
}

// SetMaintenanceMode persists the maintenance flag
func (s *Settings) SetMaintenanceMode(ctx context.Context, on bool) error {
	return s.setBool(ctx, KeyMaintenanceMode, on)
}

// SearchEnabled returns whether free-text queries are accepted
func (s *Settings) SearchEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeySearchEnabled, DefaultSearchEnabled)
}

// SetSearchEnabled persists the search flag
func (s *Settings) SetSearchEnabled(ctx context.Context, on bool) error {
	return s.setBool(ctx, KeySearchEnabled, on)
}

func (s *Settings) getBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, err := s.store.GetSetting(ctx, key, strconv.FormatBool(def))
	if err != nil {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("setting %s has invalid value %q", key, raw)
	}
	return v, nil
}

func (s *Settings) setBool(ctx context.Context, key string, v bool) error {
	if err := s.store.SetSetting(ctx, key, strconv.FormatBool(v)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"spruceup/internal/models"
)

// Setting keys for the singleton configuration records.
const (
	SettingMainSlider = "main_slider"
	SettingMainMenu   = "main_menu"
)

// SettingStore manages singleton JSON configuration records (slider
// rotation, navigation menu) keyed by name.
type SettingStore struct {
	db *sql.DB
}

// NewSettingStore returns a new SettingStore backed by the given database.
func NewSettingStore(db *sql.DB) *SettingStore {
	return &SettingStore{db: db}
}

// get loads and unmarshals a setting into out. A missing record leaves
// out untouched and is not an error.
func (s *SettingStore) get(key string, out any) error {
	var raw []byte
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return &models.RepositoryError{Op: "get setting " + key, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &models.RepositoryError{Op: "decode setting " + key, Err: err}
	}
	return nil
}

// set upserts a setting, creating it if it doesn't exist.
func (s *SettingStore) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &models.RepositoryError{Op: "encode setting " + key, Err: err}
	}
	_, err = s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, raw, time.Now(),
	)
	if err != nil {
		return &models.RepositoryError{Op: "set setting " + key, Err: err}
	}
	return nil
}

// SliderConfig returns the home-page slider configuration. An empty
// config is returned when none has been saved yet.
func (s *SettingStore) SliderConfig() (models.SliderConfig, error) {
	var cfg models.SliderConfig
	if err := s.get(SettingMainSlider, &cfg); err != nil {
		return models.SliderConfig{}, err
	}
	return cfg, nil
}

// SetSliderConfig replaces the slider configuration.
func (s *SettingStore) SetSliderConfig(cfg models.SliderConfig) error {
	return s.set(SettingMainSlider, cfg)
}

// Menu returns the navigation menu. Empty when never saved.
func (s *SettingStore) Menu() (models.Menu, error) {
	var m models.Menu
	if err := s.get(SettingMainMenu, &m); err != nil {
		return models.Menu{}, err
	}
	return m, nil
}

// SetMenu replaces the navigation menu.
func (s *SettingStore) SetMenu(m models.Menu) error {
	return s.set(SettingMainMenu, m)
}

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UpsertSettingInput struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// UpdateSettingInput is a partial update: nil fields keep the stored value.
type UpdateSettingInput struct {
	Value       *string `json:"value"`
	Description *string `json:"description"`
}

// SettingValue is the value/description pair keyed by setting key in list output.
type SettingValue struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// SettingsService is a flat key-value store for shop configuration: store name,
// tax rate, currency, receipt footer, and the like.
type SettingsService interface {
	ListSettings(ctx context.Context) (map[string]SettingValue, error)
	GetSetting(ctx context.Context, key string) (*Setting, error)
	// UpsertSetting creates the key or updates it in place. The returned bool
	// reports whether a new row was created.
	UpsertSetting(ctx context.Context, in UpsertSettingInput) (*Setting, bool, error)
	UpdateSetting(ctx context.Context, key string, in UpdateSettingInput) (*Setting, error)
	DeleteSetting(ctx context.Context, key string) error
	// InitializeDefaults seeds the standard shop settings, leaving any existing
	// keys untouched.
	InitializeDefaults(ctx context.Context) error
}

type settingsService struct {
	pool *pgxpool.Pool
}

func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settingsService{pool: pool}
}

func (s *settingsService) ListSettings(ctx context.Context) (map[string]SettingValue, error) {
	rows, err := s.pool.Query(ctx, "SELECT key, value, description FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]SettingValue)
	for rows.Next() {
		var key string
		var sv SettingValue
		if err := rows.Scan(&key, &sv.Value, &sv.Description); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = sv
	}
	return settings, nil
}

func (s *settingsService) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var st Setting
	err := s.pool.QueryRow(ctx,
		"SELECT setting_id, key, value, description FROM settings WHERE key = $1", key,
	).Scan(&st.ID, &st.Key, &st.Value, &st.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("setting %s not found", key)
		}
		return nil, fmt.Errorf("failed to fetch setting %s: %w", key, err)
	}
	return &st, nil
}

func (s *settingsService) UpsertSetting(ctx context.Context, in UpsertSettingInput) (*Setting, bool, error) {
	if in.Key == "" {
		return nil, false, Invalidf("setting key is required")
	}

	var (
		st      Setting
		created bool
	)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description
		RETURNING setting_id, key, value, description, (xmax = 0)
	`, in.Key, in.Value, in.Description).Scan(&st.ID, &st.Key, &st.Value, &st.Description, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert setting %s: %w", in.Key, err)
	}
	return &st, created, nil
}

func (s *settingsService) UpdateSetting(ctx context.Context, key string, in UpdateSettingInput) (*Setting, error) {
	cur, err := s.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}

	if in.Value != nil {
		cur.Value = *in.Value
	}
	if in.Description != nil {
		cur.Description = *in.Description
	}

	_, err = s.pool.Exec(ctx,
		"UPDATE settings SET value = $1, description = $2 WHERE key = $3",
		cur.Value, cur.Description, key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return cur, nil
}

func (s *settingsService) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.GetSetting(ctx, key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM settings WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// defaultSettings are seeded by InitializeDefaults.
var defaultSettings = []UpsertSettingInput{
	{Key: "store_name", Value: "Phone Shop", Description: "Store name"},
	{Key: "store_address", Value: "", Description: "Store address"},
	{Key: "store_phone", Value: "", Description: "Store phone number"},
	{Key: "store_email", Value: "", Description: "Store email address"},
	{Key: "tax_rate", Value: "0.15", Description: "Tax rate"},
	{Key: "currency", Value: "USD", Description: "Currency in use"},
	{Key: "receipt_footer", Value: "Thank you for your visit", Description: "Receipt footer text"},
}

func (s *settingsService) InitializeDefaults(ctx context.Context) error {
	for _, d := range defaultSettings {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO settings (key, value, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING
		`, d.Key, d.Value, d.Description)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", d.Key, err)
		}
	}
	return nil
}

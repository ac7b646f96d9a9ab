package sheetcfg

import (
	"context"
	"fmt"

	"leadflow/sheets"
)

// TabLister is the slice of the sheet store needed to verify a
// configuration before saving it.
type TabLister interface {
	Tabs(ctx context.Context, sheetID string) ([]string, error)
}

// Service exposes read/verify/save operations for the sheet configuration.
type Service struct {
	repo  Repository
	store TabLister
}

func NewService(repo Repository, store TabLister) *Service {
	return &Service{repo: repo, store: store}
}

// Get returns the current configuration, or ErrNotConfigured.
func (s *Service) Get(ctx context.Context) (Config, error) {
	return s.repo.Get(ctx)
}

// Ref returns the configured sheet reference for store calls.
func (s *Service) Ref(ctx context.Context) (sheets.SheetRef, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return sheets.SheetRef{}, err
	}
	return sheets.SheetRef{SheetID: cfg.SheetID, TabName: cfg.TabName}, nil
}

// Set verifies the sheet and tab exist, then saves them as the singleton
// configuration.
func (s *Service) Set(ctx context.Context, sheetID, tabName string) (Config, error) {
	if sheetID == "" || tabName == "" {
		return Config{}, fmt.Errorf("sheetcfg: sheet_id and tab_name are required")
	}

	tabs, err := s.store.Tabs(ctx, sheetID)
	if err != nil {
		return Config{}, fmt.Errorf("sheetcfg: verify connection: %w", err)
	}
	found := false
	for _, t := range tabs {
		if t == tabName {
			found = true
			break
		}
	}
	if !found {
		return Config{}, fmt.Errorf("sheetcfg: tab %q not found in sheet", tabName)
	}

	return s.repo.Upsert(ctx, sheetID, tabName)
}

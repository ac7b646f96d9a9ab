package sheetcfg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured signals that no sheet has been configured yet. Callers
// must treat this as a configuration problem, never as a store failure.
var ErrNotConfigured = errors.New("sheetcfg: no sheet configured")

// Config is the single application-wide lead sheet configuration.
type Config struct {
	ID        string
	SheetID   string
	TabName   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository handles data access for the sheet configuration.
type Repository interface {
	Get(ctx context.Context) (Config, error)
	Upsert(ctx context.Context, sheetID, tabName string) (Config, error)
}

// PGRepository implements Repository backed by PostgreSQL. The table holds
// at most one row, enforced by the fixed singleton key.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Get(ctx context.Context) (Config, error) {
	const selectSQL = `
		SELECT id, sheet_id, tab_name, created_at, updated_at
		FROM sheet_configs
		LIMIT 1
	`

	var cfg Config
	err := r.pool.QueryRow(ctx, selectSQL).Scan(&cfg.ID, &cfg.SheetID, &cfg.TabName, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, ErrNotConfigured
		}
		return Config{}, fmt.Errorf("sheetcfg: get config: %w", err)
	}
	return cfg, nil
}

func (r *PGRepository) Upsert(ctx context.Context, sheetID, tabName string) (Config, error) {
	const upsertSQL = `
		INSERT INTO sheet_configs (singleton, sheet_id, tab_name)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (singleton) DO UPDATE
		SET sheet_id = EXCLUDED.sheet_id,
		    tab_name = EXCLUDED.tab_name,
		    updated_at = now()
		RETURNING id, sheet_id, tab_name, created_at, updated_at
	`

	var cfg Config
	err := r.pool.QueryRow(ctx, upsertSQL, sheetID, tabName).Scan(&cfg.ID, &cfg.SheetID, &cfg.TabName, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return Config{}, fmt.Errorf("sheetcfg: upsert config: %w", err)
	}
	return cfg, nil
}

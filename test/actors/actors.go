package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	sheetID = "stress-sheet"
	tabName = "Leads"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Claimer races for lead rows: insert into lead_locks, and only the winner
// records a claim_log entry, holds the row briefly, then releases. Losing the
// insert is the expected outcome under contention.
func Claimer(ctx context.Context, pool *pgxpool.Pool, agentID string, rowCount int, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		rowIndex := 2 + rand.Intn(rowCount)
		tag, err := pool.Exec(ctx, `INSERT INTO lead_locks (sheet_id, tab_name, row_index, agent_id)
                                    VALUES ($1,$2,$3,$4) ON CONFLICT DO NOTHING`,
			sheetID, tabName, rowIndex, agentID)
		if err != nil {
			return fmt.Errorf("claimer insert: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// lost the race
			time.Sleep(time.Duration(5+rand.Intn(10)) * time.Millisecond)
			continue
		}

		var claimID int64
		if err := pool.QueryRow(ctx, `INSERT INTO claim_log (sheet_id, tab_name, row_index, agent_id)
                                      VALUES ($1,$2,$3,$4) RETURNING id`,
			sheetID, tabName, rowIndex, agentID).Scan(&claimID); err != nil {
			// could not record the hold; give the lock back and move on
			if relErr := retryExec(ctx, pool, `DELETE FROM lead_locks WHERE sheet_id=$1 AND tab_name=$2 AND row_index=$3`,
				sheetID, tabName, rowIndex); relErr != nil {
				return fmt.Errorf("claimer log: %w", err)
			}
			continue
		}

		// hold the lead as if working it
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)

		// release: close the audit interval before freeing the lock, so a
		// recorded hold never extends past the moment another agent can win.
		// Retried because the chaos actor may kill our connection mid-flight;
		// leaving the claim open would poison the overlap oracle.
		if err := retryExec(ctx, pool, `UPDATE claim_log SET released_at = clock_timestamp() WHERE id = $1`, claimID); err != nil {
			return fmt.Errorf("claimer close log: %w", err)
		}
		if err := retryExec(ctx, pool, `DELETE FROM lead_locks WHERE sheet_id=$1 AND tab_name=$2 AND row_index=$3`,
			sheetID, tabName, rowIndex); err != nil {
			return fmt.Errorf("claimer release: %w", err)
		}
	}
}

func retryExec(ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) error {
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		if _, err = pool.Exec(ctx, sql, args...); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(50 * time.Millisecond)
	}
	return err
}

// ConfigWriter repeatedly upserts the sheet configuration, battling other
// writers over the singleton row.
func ConfigWriter(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO sheet_configs (sheet_id, tab_name) VALUES ($1,$2)
                                  ON CONFLICT (singleton) DO UPDATE
                                  SET sheet_id = EXCLUDED.sheet_id, tab_name = EXCLUDED.tab_name, updated_at = now()`,
			fmt.Sprintf("doc-%d", rand.Intn(5)), tabName)
		if err != nil {
			return fmt.Errorf("config upsert: %w", err)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Registrar inserts users, deliberately reusing a small email pool so the
// unique index gets exercised under contention.
func Registrar(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		email := fmt.Sprintf("agent%d@stress.example.com", rand.Intn(10))
		_, err := pool.Exec(ctx, `INSERT INTO users (name, email, password_hash) VALUES ($1,$2,'x')`,
			"Stress Agent", email)
		if err != nil && !isUniqueViolation(err) {
			return fmt.Errorf("registrar insert: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// SlotBooker inserts availability slots from a small fixed pool; duplicates
// must hit the unique constraint, never create a second row.
func SlotBooker(ctx context.Context, pool *pgxpool.Pool, agentID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		hour := 9 + rand.Intn(4)
		_, err := pool.Exec(ctx, `INSERT INTO availability (agent_id, day, start_time, end_time)
                                  VALUES ($1, '2025-07-01', make_time($2,0,0), make_time($3,0,0))`,
			agentID, hour, hour+1)
		if err != nil && !isUniqueViolation(err) {
			return fmt.Errorf("slot insert: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Sweeper drops locks older than a threshold, the way an operator would clear
// abandoned claims. It must never free a lock an actor is still inside of, so
// the threshold sits far above the actors' hold time.
func Sweeper(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			_, err := pool.Exec(ctx, `DELETE FROM lead_locks WHERE claimed_at < now() - interval '10 seconds'`)
			if err != nil {
				return fmt.Errorf("sweeper: %w", err)
			}
		}
	}
}

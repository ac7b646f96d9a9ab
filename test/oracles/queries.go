package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			// The core exclusivity invariant: no two recorded claim holds for
			// the same row may overlap in time.
			Name: "O1_exclusive_claim",
			SQL: `SELECT a.id, b.id, a.row_index, a.agent_id, b.agent_id
                  FROM claim_log a
                  JOIN claim_log b
                    ON a.sheet_id = b.sheet_id
                   AND a.tab_name = b.tab_name
                   AND a.row_index = b.row_index
                   AND a.id < b.id
                  WHERE b.claimed_at < COALESCE(a.released_at, clock_timestamp())
                    AND a.claimed_at < COALESCE(b.released_at, clock_timestamp())`,
		},
		{
			Name: "O2_single_lock_row",
			SQL: `SELECT sheet_id, tab_name, row_index, COUNT(*) FROM lead_locks
                  GROUP BY sheet_id, tab_name, row_index HAVING COUNT(*) > 1`,
		},
		{
			Name: "O3_config_singleton",
			SQL:  `SELECT COUNT(*) FROM sheet_configs HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_lock_header_guard",
			SQL:  `SELECT * FROM lead_locks WHERE row_index < 2`,
		},
		{
			Name: "O5_unique_emails",
			SQL: `SELECT email, COUNT(*) FROM users
                  GROUP BY email HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_unique_slots",
			SQL: `SELECT agent_id, day, start_time, COUNT(*) FROM availability
                  GROUP BY agent_id, day, start_time, end_time HAVING COUNT(*) > 1`,
		},
		{
			// Every open claim must be backed by a live lock; a log entry with
			// no released_at and no lock row means a release path lost a write.
			Name: "O7_open_claim_has_lock",
			SQL: `SELECT c.id, c.row_index, c.agent_id FROM claim_log c
                  WHERE c.released_at IS NULL
                    AND c.claimed_at < clock_timestamp() - interval '5 seconds'
                    AND NOT EXISTS (
                        SELECT 1 FROM lead_locks l
                        WHERE l.sheet_id = c.sheet_id
                          AND l.tab_name = c.tab_name
                          AND l.row_index = c.row_index)`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row
// text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"labtopo/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc's driver rejects concurrent writes without a busy timeout
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hosts (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS role_addresses (
		host_id TEXT NOT NULL,
		role TEXT NOT NULL,
		address TEXT NOT NULL,
		PRIMARY KEY (host_id, role),
		FOREIGN KEY (host_id) REFERENCES hosts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host_id TEXT NOT NULL,
		role TEXT NOT NULL,
		address TEXT NOT NULL,
		probe TEXT NOT NULL,
		success INTEGER NOT NULL,
		latency_ns INTEGER NOT NULL DEFAULT 0,
		detail JSON,
		observed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_role_addresses_role ON role_addresses(role);
	CREATE INDEX IF NOT EXISTS idx_observations_host ON observations(host_id);
	CREATE INDEX IF NOT EXISTS idx_observations_time ON observations(observed_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ReplaceTopology swaps the persisted snapshot in a single transaction.
// On any error the previous snapshot stays intact.
func (r *Repository) ReplaceTopology(ctx context.Context, hosts []domain.HostRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_addresses`); err != nil {
		return fmt.Errorf("clear role_addresses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hosts`); err != nil {
		return fmt.Errorf("clear hosts: %w", err)
	}

	hostStmt, err := tx.PrepareContext(ctx, `INSERT INTO hosts (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare host insert: %w", err)
	}
	defer hostStmt.Close()

	addrStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO role_addresses (host_id, role, address) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare address insert: %w", err)
	}
	defer addrStmt.Close()

	for _, host := range hosts {
		if _, err := hostStmt.ExecContext(ctx, host.ID); err != nil {
			return fmt.Errorf("insert host %s: %w", host.ID, err)
		}
		for _, role := range host.RolesPresent() {
			if _, err := addrStmt.ExecContext(ctx, host.ID, string(role), host.Addresses[role]); err != nil {
				return fmt.Errorf("insert address %s/%s: %w", host.ID, role, err)
			}
		}
	}

	return tx.Commit()
}

// ListHosts returns all persisted records sorted by host_id
func (r *Repository) ListHosts(ctx context.Context) ([]domain.HostRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT h.id, ra.role, ra.address
		FROM hosts h
		LEFT JOIN role_addresses ra ON ra.host_id = h.id
		ORDER BY h.id, ra.role
	`)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	var (
		out     []domain.HostRecord
		current *domain.HostRecord
	)

	for rows.Next() {
		var (
			id            string
			role, address sql.NullString
		)
		if err := rows.Scan(&id, &role, &address); err != nil {
			return nil, fmt.Errorf("scan host row: %w", err)
		}

		if current == nil || current.ID != id {
			out = append(out, domain.HostRecord{
				ID:        id,
				Addresses: make(map[domain.Role]string),
			})
			current = &out[len(out)-1]
		}

		if role.Valid && address.Valid {
			current.Addresses[domain.Role(role.String)] = address.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hosts: %w", err)
	}

	return out, nil
}

// RecordObservation appends a probe observation
func (r *Repository) RecordObservation(ctx context.Context, obs *domain.Observation) error {
	var detail []byte
	if obs.Detail != nil {
		var err error
		detail, err = json.Marshal(obs.Detail)
		if err != nil {
			return fmt.Errorf("marshal detail: %w", err)
		}
	}

	observedAt := obs.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO observations (host_id, role, address, probe, success, latency_ns, detail, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, obs.HostID, string(obs.Role), obs.Address, obs.Probe,
		boolToInt(obs.Success), int64(obs.Latency), detail, observedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		obs.ID = id
	}

	return nil
}

// ListObservations returns recent observations, newest first
func (r *Repository) ListObservations(ctx context.Context, hostID string, limit int) ([]domain.Observation, error) {
	query := `
		SELECT id, host_id, role, address, probe, success, latency_ns, detail, observed_at
		FROM observations
	`
	var args []any
	if hostID != "" {
		query += ` WHERE host_id = ?`
		args = append(args, hostID)
	}
	query += ` ORDER BY observed_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var (
			obs        domain.Observation
			role       string
			success    int
			latency    int64
			detail     []byte
			observedAt string
		)
		if err := rows.Scan(&obs.ID, &obs.HostID, &role, &obs.Address, &obs.Probe,
			&success, &latency, &detail, &observedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}

		obs.Role = domain.Role(role)
		obs.Success = success != 0
		obs.Latency = time.Duration(latency)

		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &obs.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal detail: %w", err)
			}
		}

		if ts, err := time.Parse(time.RFC3339Nano, observedAt); err == nil {
			obs.ObservedAt = ts
		}

		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return out, nil
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

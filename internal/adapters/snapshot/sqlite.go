package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"dexdash/internal/adapters/refdata"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_chains (
		snapshot_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		chain_identifier TEXT NOT NULL,
		logo_url TEXT NOT NULL,
		native_token_id TEXT,
		PRIMARY KEY (snapshot_id, position),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS snapshot_assets (
		snapshot_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		address TEXT NOT NULL,
		symbol TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		decimals INTEGER NOT NULL,
		logo_url TEXT NOT NULL,
		price_usd TEXT NOT NULL,
		price REAL,
		PRIMARY KEY (snapshot_id, position),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

// Record is a stored payload with its identity.
type Record struct {
	ID        string
	CreatedAt time.Time
	Payload   *refdata.Payload
}

// SQLiteRepository keeps the last successfully built reference payloads so a
// restart can serve data before the source is reachable again.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db, now: time.Now}

	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores p as a new snapshot and returns its id.
func (r *SQLiteRepository) Save(ctx context.Context, p *refdata.Payload) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	createdAt := r.now().UTC().Format(timeLayout)

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (id, created_at) VALUES (?, ?)`, id, createdAt); err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	chainStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_chains
			(snapshot_id, position, id, name, display_name, chain_identifier, logo_url, native_token_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare chain insert: %w", err)
	}
	defer chainStmt.Close()

	for i, c := range p.Chains {
		var native sql.NullString
		if c.NativeToken != nil {
			native = sql.NullString{String: c.NativeToken.ID, Valid: true}
		}

		_, err := chainStmt.ExecContext(ctx, id, i, c.ID, c.Name, c.DisplayName, c.ChainIdentifier.String(), c.LogoURL, native)
		if err != nil {
			return "", fmt.Errorf("failed to insert chain: chain_id=%s: %w", c.ID, err)
		}
	}

	assetStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_assets
			(snapshot_id, position, id, address, symbol, chain_id, name, display_name, decimals, logo_url, price_usd, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare asset insert: %w", err)
	}
	defer assetStmt.Close()

	for i, a := range p.Assets {
		var price sql.NullFloat64
		if a.Price != nil {
			price = sql.NullFloat64{Float64: *a.Price, Valid: true}
		}

		_, err := assetStmt.ExecContext(ctx, id, i, a.ID, a.Address, a.Symbol, a.Chain.ID, a.Name,
			a.DisplayName, a.Decimals, a.LogoURL, a.PriceUsd.String(), price)
		if err != nil {
			return "", fmt.Errorf("failed to insert asset: asset_id=%s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return id, nil
}

// Latest returns the most recently saved snapshot.
func (r *SQLiteRepository) Latest(ctx context.Context) (*Record, error) {
	query := `
		SELECT id, created_at
		FROM snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	var rec Record
	var createdAtStr string

	err := r.db.QueryRowContext(ctx, query).Scan(&rec.ID, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.CreatedAt = createdAt

	chains, err := r.loadChains(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chains: %w", err)
	}

	assets, err := r.loadAssets(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	rec.Payload = &refdata.Payload{Assets: assets, Chains: chains}

	return &rec, nil
}

// Prune deletes every snapshot except the keep most recent ones and returns
// how many were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}

	return n, nil
}

func (r *SQLiteRepository) loadChains(ctx context.Context, snapshotID string) ([]refdata.ChainRecord, error) {
	query := `
		SELECT id, name, display_name, chain_identifier, logo_url, native_token_id
		FROM snapshot_chains
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chains := make([]refdata.ChainRecord, 0)
	for rows.Next() {
		var c refdata.ChainRecord
		var chainIdentifier string
		var native sql.NullString

		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &chainIdentifier, &c.LogoURL, &native); err != nil {
			return nil, fmt.Errorf("failed to scan chain: %w", err)
		}

		c.ChainIdentifier = json.Number(chainIdentifier)
		if native.Valid {
			c.NativeToken = &refdata.Ref{ID: native.String}
		}

		chains = append(chains, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chains: %w", err)
	}

	return chains, nil
}

func (r *SQLiteRepository) loadAssets(ctx context.Context, snapshotID string) ([]refdata.AssetRecord, error) {
	query := `
		SELECT id, address, symbol, chain_id, name, display_name, decimals, logo_url, price_usd, price
		FROM snapshot_assets
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]refdata.AssetRecord, 0)
	for rows.Next() {
		var a refdata.AssetRecord
		var priceUsd string
		var price sql.NullFloat64

		err := rows.Scan(&a.ID, &a.Address, &a.Symbol, &a.Chain.ID, &a.Name, &a.DisplayName,
			&a.Decimals, &a.LogoURL, &priceUsd, &price)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		a.PriceUsd = json.Number(priceUsd)
		if price.Valid {
			p := price.Float64
			a.Price = &p
		}

		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

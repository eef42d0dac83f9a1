package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"tilecraft/server/models"
)

// PostgresStore handles world persistence using PostgreSQL. Tiles and items
// are stored as the same text records the file store writes.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	// Initialize the database schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema initializes the database schema
func (dm *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		name TEXT PRIMARY KEY,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS world_tiles (
		world_name TEXT NOT NULL REFERENCES worlds(name) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		record BYTEA NOT NULL,
		PRIMARY KEY (world_name, idx)
	);

	CREATE TABLE IF NOT EXISTS world_items (
		world_name TEXT NOT NULL REFERENCES worlds(name) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		record BYTEA NOT NULL,
		PRIMARY KEY (world_name, idx)
	);
	`

	_, err := dm.db.Exec(schema)
	return err
}

// SaveWorld replaces the stored world in a single transaction
func (dm *PostgresStore) SaveWorld(name string, world *models.WorldData) error {
	tx, err := dm.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO worlds (name, width, height)
	VALUES ($1, $2, $3)
	ON CONFLICT (name)
	DO UPDATE SET
		width = $2, height = $3,
		updated_at = NOW()
	`
	if _, err := tx.Exec(query, name, world.Width, world.Height); err != nil {
		return fmt.Errorf("failed to save world: %w", err)
	}

	for _, table := range []string{"world_tiles", "world_items"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE world_name = $1`, name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	tiles := make([][]byte, len(world.Tiles))
	for i := range world.Tiles {
		tiles[i] = EncodeTile(&world.Tiles[i])
	}
	if err := copyRecords(tx, "world_tiles", name, tiles); err != nil {
		return err
	}

	items := make([][]byte, len(world.Items))
	for i, item := range world.Items {
		items[i] = EncodeItem(item)
	}
	if err := copyRecords(tx, "world_items", name, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit world: %w", err)
	}
	return nil
}

// copyRecords bulk loads records with COPY FROM STDIN
func copyRecords(tx *sql.Tx, table, name string, records [][]byte) error {
	stmt, err := tx.Prepare(pq.CopyIn(table, "world_name", "idx", "record"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	for i, rec := range records {
		if _, err := stmt.Exec(name, i, rec); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy %s row %d: %w", table, i, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	return stmt.Close()
}

// LoadWorld loads a world from the database by name
func (dm *PostgresStore) LoadWorld(name string) (*models.WorldData, error) {
	var world models.WorldData
	err := dm.db.QueryRow(`SELECT width, height FROM worlds WHERE name = $1`, name).Scan(&world.Width, &world.Height)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
		}
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	world.Tiles = make([]models.Tile, world.Width*world.Height)
	seen := 0
	err = dm.eachRecord("world_tiles", name, func(idx int, rec []byte) error {
		if idx < 0 || idx >= len(world.Tiles) {
			return fmt.Errorf("tile index %d out of range", idx)
		}
		t, err := DecodeTile(rec)
		if err != nil {
			return fmt.Errorf("tile %d: %w", idx, err)
		}
		world.Tiles[idx] = t
		seen++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if seen != len(world.Tiles) {
		return nil, fmt.Errorf("world %s has %d of %d tiles", name, seen, len(world.Tiles))
	}

	err = dm.eachRecord("world_items", name, func(idx int, rec []byte) error {
		item, err := DecodeItem(rec)
		if err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
		world.Items = append(world.Items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &world, nil
}

func (dm *PostgresStore) eachRecord(table, name string, fn func(idx int, rec []byte) error) error {
	rows, err := dm.db.Query(`SELECT idx, record FROM `+table+` WHERE world_name = $1 ORDER BY idx`, name)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx int
		var rec []byte
		if err := rows.Scan(&idx, &rec); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if err := fn(idx, rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close closes the database connection
func (dm *PostgresStore) Close() error {
	log.Println("Closing database connection...")
	return dm.db.Close()
}

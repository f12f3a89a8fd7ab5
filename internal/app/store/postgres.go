package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poker/internal/app/db"
)

// keptSnapshots is how many past saves stay in room_states.
const keptSnapshots = 20

// postgresStore appends every save as a jsonb row and loads the newest one.
type postgresStore struct {
	pool *pgxpool.Pool
}

func newPostgresStore(ctx context.Context, cfg ServiceConfig) (*postgresStore, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Load(ctx context.Context) ([]RoomRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM room_states ORDER BY id DESC LIMIT 1`,
	).Scan(&data)
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load room state: %w", err)
	}

	return decodeRecords(data)
}

func (s *postgresStore) Save(ctx context.Context, records []RoomRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO room_states (state) VALUES ($1)`, data); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`DELETE FROM room_states WHERE id NOT IN (SELECT id FROM room_states ORDER BY id DESC LIMIT $1)`,
			keptSnapshots,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres: failed to save room state: %w", err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

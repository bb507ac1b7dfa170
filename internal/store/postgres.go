package store

import (
	"context"
	"encoding/json"
	"errors"

	"flip_royale/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each record as a jsonb document. Updates merge the
// patch's top-level keys into the stored document.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, address string) (*domain.UserRecord, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT doc FROM user_records WHERE id = $1`,
		domain.NormalizeAddress(address),
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("postgres get", err)
	}

	var rec domain.UserRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, address string, patch *domain.RecordPatch) (*domain.UserRecord, error) {
	id := domain.NormalizeAddress(address)
	var p domain.RecordPatch
	if patch != nil {
		p = *patch
	}
	// the row key is authoritative for the document id
	p.ID = &id

	b, err := json.Marshal(&p)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = s.db.QueryRow(ctx,
		`INSERT INTO user_records (id, doc, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET doc = user_records.doc || EXCLUDED.doc, updated_at = NOW()
		 RETURNING doc`,
		id, b,
	).Scan(&doc)
	if err != nil {
		return nil, unavailable("postgres update", err)
	}

	var rec domain.UserRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable("postgres ping", err)
	}
	return nil
}

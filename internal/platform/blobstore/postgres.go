package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// PostgresStore keeps file content in the blobs table.
type PostgresStore struct {
	q db.Querier
}

func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

const blobCols = `id, owner_id, file_name, content_type, size, hash, category, created_at`

func scanMetadata(row pgx.Row) (*Metadata, error) {
	var m Metadata
	err := row.Scan(&m.ID, &m.OwnerID, &m.FileName, &m.ContentType, &m.Size, &m.Hash, &m.Category, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	_, err = db.Conn(ctx, s.q).Exec(ctx, `
		INSERT INTO blobs (id, owner_id, file_name, content_type, size, hash, category, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		meta.ID, meta.OwnerID, meta.FileName, meta.ContentType, meta.Size, meta.Hash, meta.Category, data, meta.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert blob: %w", err)
	}
	return &meta, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	var (
		m    Metadata
		data []byte
	)
	err := db.Conn(ctx, s.q).QueryRow(ctx, `SELECT `+blobCols+`, content FROM blobs WHERE id = $1`, id).
		Scan(&m.ID, &m.OwnerID, &m.FileName, &m.ContentType, &m.Size, &m.Hash, &m.Category, &m.CreatedAt, &data)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("get blob: %w", err)
	}
	return readCloser(data), &m, nil
}

func (s *PostgresStore) Stat(ctx context.Context, ownerID, id uuid.UUID) (*Metadata, error) {
	m, err := scanMetadata(db.Conn(ctx, s.q).QueryRow(ctx,
		`SELECT `+blobCols+` FROM blobs WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := db.Conn(ctx, s.q).Exec(ctx, `DELETE FROM blobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID uuid.UUID, category string) ([]*Metadata, error) {
	query := `SELECT ` + blobCols + ` FROM blobs WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Conn(ctx, s.q).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	out := []*Metadata{}
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

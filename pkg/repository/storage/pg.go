package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduardlon/torresbarber/pkg/domain/persist"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

var ErrDuplicateTurn = errors.New("turn already exists")

const schema = `
CREATE TABLE IF NOT EXISTS turn (
	id             TEXT PRIMARY KEY,
	client_name    TEXT NOT NULL,
	client_phone   TEXT,
	service        TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'waiting',
	estimated_time INT  NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	barbero_id     TEXT,
	notes          TEXT
);
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PGRepo is the booking backend: it owns the authoritative turn queue and
// doubles as a persist.Storage through the app_state table.
type PGRepo struct{ pool *pgxpool.Pool }

func NewRepo(ctx context.Context, dsn string) (*PGRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New("failed to create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.New("failed to ping postgres").Wrap(err)
	}
	return &PGRepo{pool: pool}, nil
}

func (r *PGRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *PGRepo) Close() { r.pool.Close() }

func (r *PGRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PGRepo) ListTurns(ctx context.Context) ([]model.Turn, error) {
	const q = `
		SELECT id, client_name, client_phone, service, status, estimated_time, created_at, barbero_id, notes
		FROM turn
		ORDER BY created_at DESC;
	`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Turn{}
	for rows.Next() {
		var rec model.TurnRecord
		if err := rows.Scan(&rec.ID, &rec.ClientName, &rec.ClientPhone, &rec.Service, &rec.Status,
			&rec.EstimatedTime, &rec.CreatedAt, &rec.BarberID, &rec.Notes); err != nil {
			return nil, err
		}
		out = append(out, rec.Turn())
	}
	return out, rows.Err()
}

func (r *PGRepo) CreateTurn(ctx context.Context, t model.Turn) error {
	const q = `
		INSERT INTO turn (id, client_name, client_phone, service, status, estimated_time, created_at, barbero_id, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);
	`
	rec := model.RecordOf(t)
	_, err := r.pool.Exec(ctx, q, rec.ID, rec.ClientName, rec.ClientPhone, rec.Service, rec.Status,
		rec.EstimatedTime, rec.CreatedAt, rec.BarberID, rec.Notes)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return ErrDuplicateTurn
		}
		return err
	}
	return nil
}

func (r *PGRepo) UpdateTurnStatus(ctx context.Context, id string, status model.TurnStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE turn SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrTurnNotFound
	}
	return nil
}

func (r *PGRepo) DeleteTurn(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM turn WHERE id=$1`, id)
	return err
}

func (r *PGRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM app_state WHERE key=$1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persist.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *PGRepo) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_state (key, payload, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE
		   SET payload=EXCLUDED.payload, updated_at=now()
	`, key, data)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openclaw/designdesk/internal/database"
	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/model"
)

// clientsLockKey is the pg_advisory_xact_lock key that serializes Update.
const clientsLockKey int64 = 0x64657369676e // "design"

const clientSchema = `
CREATE TABLE IF NOT EXISTS design_clients (
	role_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	monthly_quota INTEGER NOT NULL,
	used          INTEGER NOT NULL DEFAULT 0 CHECK (used >= 0),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS design_quota_period (
	id     SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	period TEXT NOT NULL
);
`

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type postgresClientRepo struct {
	db                *database.DB
	unlimitedSentinel int
}

func NewPostgresClientRepository(db *database.DB, unlimitedSentinel int) ClientRepository {
	return &postgresClientRepo{db: db, unlimitedSentinel: unlimitedSentinel}
}

// EnsureClientSchema creates the client tables when missing.
func EnsureClientSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.ExecContext(ctx, clientSchema); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (r *postgresClientRepo) Load(ctx context.Context) (*model.ConfigRoot, error) {
	root, err := r.read(ctx, r.db.DB)
	if err != nil {
		return nil, err
	}
	if err := root.Validate(r.unlimitedSentinel); err != nil {
		return nil, err
	}
	return root, nil
}

func (r *postgresClientRepo) Save(ctx context.Context, root *model.ConfigRoot) error {
	if err := root.Validate(r.unlimitedSentinel); err != nil {
		return err
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockClients(ctx, tx); err != nil {
			return err
		}
		return r.write(ctx, tx, root)
	})
}

func (r *postgresClientRepo) Update(ctx context.Context, fn UpdateFunc) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockClients(ctx, tx); err != nil {
			return err
		}
		root, err := r.read(ctx, tx)
		if err != nil {
			return err
		}
		if err := root.Validate(r.unlimitedSentinel); err != nil {
			return err
		}
		if err := fn(root); err != nil {
			if errors.Is(err, ErrNoChange) {
				return nil
			}
			return err
		}
		if err := root.Validate(r.unlimitedSentinel); err != nil {
			return err
		}
		return r.write(ctx, tx, root)
	})
}

func lockClients(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, clientsLockKey); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (r *postgresClientRepo) read(ctx context.Context, db sqlxDB) (*model.ConfigRoot, error) {
	var rows []model.ClientRow
	if err := db.SelectContext(ctx, &rows, `
		SELECT role_id, name, monthly_quota, used, updated_at
		FROM design_clients
		ORDER BY role_id
	`); err != nil {
		return nil, apperrors.Database(err)
	}

	var period string
	err := db.GetContext(ctx, &period, `SELECT period FROM design_quota_period WHERE id = 1`)
	found, err := HandleNotFound(&period, err)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	root := model.NewConfigRoot()
	if found != nil {
		root.Period = *found
	}
	for _, row := range rows {
		rec := row.ClientRecord
		root.Clients[row.RoleID] = &rec
	}
	return root, nil
}

func (r *postgresClientRepo) write(ctx context.Context, db sqlxDB, root *model.ConfigRoot) error {
	roleIDs := root.RoleIDs()

	if _, err := db.ExecContext(ctx, `
		DELETE FROM design_clients WHERE NOT (role_id = ANY($1))
	`, pq.Array(roleIDs)); err != nil {
		return apperrors.Database(err)
	}

	for _, roleID := range roleIDs {
		rec := root.Clients[roleID]
		if _, err := db.ExecContext(ctx, `
			INSERT INTO design_clients (role_id, name, monthly_quota, used)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (role_id) DO UPDATE SET
				name = EXCLUDED.name,
				monthly_quota = EXCLUDED.monthly_quota,
				used = EXCLUDED.used,
				updated_at = now()
			WHERE (design_clients.name, design_clients.monthly_quota, design_clients.used)
				IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.monthly_quota, EXCLUDED.used)
		`, roleID, rec.Name, rec.MonthlyQuota, rec.Used); err != nil {
			return apperrors.Database(err)
		}
	}

	if root.Period == "" {
		_, err := db.ExecContext(ctx, `DELETE FROM design_quota_period WHERE id = 1`)
		if err != nil {
			return apperrors.Database(err)
		}
		return nil
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO design_quota_period (id, period) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET period = EXCLUDED.period
	`, root.Period); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

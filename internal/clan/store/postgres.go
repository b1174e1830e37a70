package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
	"clanhub/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists clans in PostgreSQL. Every operation checks out its
// own connection from the pool and returns it before exiting.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed clan store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%s: acquire connection: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	defer conn.Close()
	return fn(conn)
}

// Create inserts clan and copies the store-assigned created_at back onto it.
func (s *PostgresStore) Create(ctx context.Context, clan *models.Clan) error {
	return s.withConn(ctx, "create clan", func(conn *sql.Conn) error {
		query := `
			INSERT INTO clans (id, name, region)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`
		err := conn.QueryRowContext(ctx, query,
			uuid.UUID(clan.ID),
			clan.Name,
			nullString(clan.Region),
		).Scan(&clan.CreatedAt)
		if err != nil {
			return classify("create clan", err)
		}
		return nil
	})
}

// List returns matching clans. Known sort fields order by created_at with
// seq as the tie-break; anything else falls back to insertion order.
func (s *PostgresStore) List(ctx context.Context, q models.ListQuery) ([]*models.Clan, error) {
	query := `SELECT id, name, region, created_at FROM clans`
	var args []any
	if q.Region != nil {
		query += ` WHERE region = $1`
		args = append(args, *q.Region)
	}
	if q.SortBy.IsKnown() {
		query += ` ORDER BY created_at ASC, seq ASC`
	} else {
		query += ` ORDER BY seq ASC`
	}

	var clans []*models.Clan
	err := s.withConn(ctx, "list clans", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return classify("list clans", err)
		}
		defer rows.Close()

		clans = make([]*models.Clan, 0)
		for rows.Next() {
			clan, err := scanClan(rows)
			if err != nil {
				return classify("scan clan", err)
			}
			clans = append(clans, clan)
		}
		if err := rows.Err(); err != nil {
			return classify("iterate clans", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clans, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clanID id.ClanID) (*models.Clan, error) {
	var clan *models.Clan
	err := s.withConn(ctx, "find clan", func(conn *sql.Conn) error {
		query := `SELECT id, name, region, created_at FROM clans WHERE id = $1`
		found, err := scanClan(conn.QueryRowContext(ctx, query, uuid.UUID(clanID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return classify("find clan", err)
		}
		clan = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clan, nil
}

// Delete removes the clan in a single statement; zero affected rows means
// the clan was already absent.
func (s *PostgresStore) Delete(ctx context.Context, clanID id.ClanID) error {
	return s.withConn(ctx, "delete clan", func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM clans WHERE id = $1`, uuid.UUID(clanID))
		if err != nil {
			return classify("delete clan", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify("delete clan", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

// Ping verifies the pool can reach the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClan(row rowScanner) (*models.Clan, error) {
	var (
		rawID  uuid.UUID
		clan   models.Clan
		region sql.NullString
	)
	if err := row.Scan(&rawID, &clan.Name, &region, &clan.CreatedAt); err != nil {
		return nil, err
	}
	clan.ID = id.ClanID(rawID)
	if region.Valid {
		clan.Region = &region.String
	}
	return &clan, nil
}

// classify maps driver errors onto sentinels. Unique violations become
// ErrConflict; everything else is treated as the store being unavailable.
func classify(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/dbx"
	"github.com/skillbridge/auth/internal/server/models"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Store(ctx context.Context, userID, token string, typ models.TokenType) (models.Token, error) {
	rec := models.Token{
		ID:     uuid.NewString(),
		Token:  token,
		Type:   typ,
		UserID: userID,
	}

	query := `
		INSERT INTO tokens (id, token, token_type, revoked, expired, user_id)
		VALUES ($1, $2, $3, FALSE, FALSE, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.Token, string(rec.Type), rec.UserID).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.Token{}, common.ErrAlreadyExists
		}
		return models.Token{}, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (models.Token, error) {
	query := `
		SELECT id, token, token_type, revoked, expired, user_id, created_at
		FROM tokens
		WHERE token = $1
	`
	var (
		rec models.Token
		typ string
	)
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rec.ID, &rec.Token, &typ, &rec.Revoked, &rec.Expired, &rec.UserID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Token{}, common.ErrorNotFound
		}
		return models.Token{}, fmt.Errorf("db error: %w", err)
	}
	rec.Type = models.TokenType(typ)
	return rec, nil
}

func (r *PostgresRepository) InvalidateAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE tokens
		SET revoked = TRUE, expired = TRUE
		WHERE user_id = $1 AND (revoked = FALSE OR expired = FALSE)
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffected(res), nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE tokens
		SET revoked = TRUE, expired = TRUE
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if dbx.RowsAffected(res) == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.Token, error) {
	query := `
		SELECT id, token, token_type, revoked, expired, user_id, created_at
		FROM tokens
		WHERE user_id = $1 AND revoked = FALSE AND expired = FALSE
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Token
	for rows.Next() {
		var (
			rec models.Token
			typ string
		)
		if err := rows.Scan(&rec.ID, &rec.Token, &typ, &rec.Revoked, &rec.Expired, &rec.UserID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Type = models.TokenType(typ)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

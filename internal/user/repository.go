package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/daycare-sub-backend/internal/db"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Create inserts the user and its profile row.
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
	// SetPassword stores the hash and marks the profile as password_set.
	SetPassword(ctx context.Context, id string, hash string) error

	CreateLoginToken(ctx context.Context, hash, userID, purpose string, redirectTo *string, expiresAt time.Time) error
	// ConsumeLoginToken marks an unused, unexpired token as used and returns it.
	// Returns ErrInvalidCode when no such token exists.
	ConsumeLoginToken(ctx context.Context, hash string) (*LoginToken, error)

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpiredTokens deletes expired or used login tokens and expired revocations.
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{
		pool: pool,
	}
}

const selectUser = `
	SELECT
		u.id,
		u.email,
		u.password_hash,
		u.created_at,
		u.last_login_at,
		u.is_active,
		COALESCE(p.password_set, false),
		COALESCE(
			(
				SELECT json_agg(json_build_object('id', o.id, 'name', o.name, 'role', m.role) ORDER BY m.created_at)
				FROM public.memberships m
				JOIN public.organizations o ON m.organization_id = o.id
				WHERE m.user_id = u.id
			),
			'[]'::json
		) AS organizations
	FROM public.users u
	LEFT JOIN public.profiles p ON p.user_id = u.id
`

func (r *pgxUserRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	var orgsJSON []byte

	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.LastLoginAt,
		&u.IsActive,
		&u.PasswordSet,
		&orgsJSON,
	); err != nil {
		return nil, err
	}

	if len(orgsJSON) > 0 {
		if err := json.Unmarshal(orgsJSON, &u.Organizations); err != nil {
			return nil, fmt.Errorf("decode organizations for user %s: %w", u.ID, err)
		}
	}

	return &u, nil
}

func (r *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.scanUser(r.pool.QueryRow(ctx, selectUser+" WHERE u.email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByEmail query failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := r.scanUser(r.pool.QueryRow(ctx, selectUser+" WHERE u.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID query failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO public.users (email, password_hash, is_active)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`
		if err := tx.QueryRow(ctx, insertUser, u.Email, u.PasswordHash, u.IsActive).
			Scan(&u.ID, &u.CreatedAt); err != nil {
			var e *pgconn.PgError
			if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
				return ErrEmailAlreadyUsed
			}
			return fmt.Errorf("Create user failed: %w", err)
		}

		const insertProfile = `
			INSERT INTO public.profiles (user_id, password_set)
			VALUES ($1, $2)
		`
		if _, err := tx.Exec(ctx, insertProfile, u.ID, u.PasswordSet); err != nil {
			return fmt.Errorf("Create profile failed: %w", err)
		}
		return nil
	})
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	const query = `
		UPDATE public.users
		SET last_login_at = $1
		WHERE id = $2
	`

	ct, err := r.pool.Exec(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("UpdateLastLogin failed: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *pgxUserRepository) SetPassword(ctx context.Context, id string, hash string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE public.users SET password_hash = $1 WHERE id = $2`, hash, id)
		if err != nil {
			return fmt.Errorf("SetPassword failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}

		const upsertProfile = `
			INSERT INTO public.profiles (user_id, password_set, updated_at)
			VALUES ($1, true, now())
			ON CONFLICT (user_id) DO UPDATE
			SET password_set = true, updated_at = now()
		`
		if _, err := tx.Exec(ctx, upsertProfile, id); err != nil {
			return fmt.Errorf("mark password_set failed: %w", err)
		}
		return nil
	})
}

func (r *pgxUserRepository) CreateLoginToken(ctx context.Context, hash, userID, purpose string, redirectTo *string, expiresAt time.Time) error {
	const query = `
		INSERT INTO public.login_tokens (token_hash, user_id, purpose, redirect_to, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, hash, userID, purpose, redirectTo, expiresAt); err != nil {
		return fmt.Errorf("CreateLoginToken failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) ConsumeLoginToken(ctx context.Context, hash string) (*LoginToken, error) {
	const query = `
		UPDATE public.login_tokens
		SET used_at = now()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
		RETURNING user_id, purpose, redirect_to
	`

	var t LoginToken
	if err := r.pool.QueryRow(ctx, query, hash).Scan(&t.UserID, &t.Purpose, &t.RedirectTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("ConsumeLoginToken failed: %w", err)
	}
	return &t, nil
}

func (r *pgxUserRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	const query = `
		INSERT INTO public.revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, jti, expiresAt); err != nil {
		return fmt.Errorf("RevokeToken failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM public.revoked_tokens WHERE jti = $1)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("IsRevoked failed: %w", err)
	}
	return revoked, nil
}

func (r *pgxUserRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`DELETE FROM public.login_tokens WHERE expires_at <= $1 OR used_at IS NOT NULL`, now)
		if err != nil {
			return fmt.Errorf("purge login tokens failed: %w", err)
		}
		total += ct.RowsAffected()

		ct, err = tx.Exec(ctx, `DELETE FROM public.revoked_tokens WHERE expires_at <= $1`, now)
		if err != nil {
			return fmt.Errorf("purge revoked tokens failed: %w", err)
		}
		total += ct.RowsAffected()
		return nil
	})
	return total, err
}

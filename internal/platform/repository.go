package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/daycare-sub-backend/internal/db"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
)

// Repository performs the multi-row writes behind platform actions.
// Each method runs in a single transaction.
type Repository interface {
	// CreateOrganization inserts the organization and an admin membership for the creator.
	CreateOrganization(ctx context.Context, name string, creatorID string) (*organization.Organization, error)
	// UpsertInvitedMember ensures the user, a password_set=false profile and
	// the membership exist, and returns the user ID. Re-running it with the
	// same email updates the role and changes nothing else.
	UpsertInvitedMember(ctx context.Context, email string, orgID string, role organization.Role) (string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new platform repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func upsertMembership(orgID, userID string, role organization.Role) squirrel.InsertBuilder {
	return psql.Insert("public.memberships").
		Columns("organization_id", "user_id", "role").
		Values(orgID, userID, string(role)).
		Suffix("ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role")
}

func (r *pgxRepository) CreateOrganization(ctx context.Context, name string, creatorID string) (*organization.Organization, error) {
	var org organization.Organization

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query, args, err := psql.Insert("public.organizations").
			Columns("name", "created_by").
			Values(name, creatorID).
			Suffix("RETURNING id, name, created_by, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create organization query failed: %w", err)
		}

		if err := tx.QueryRow(ctx, query, args...).
			Scan(&org.ID, &org.Name, &org.CreatedBy, &org.CreatedAt); err != nil {
			return fmt.Errorf("create organization failed: %w", err)
		}

		query, args, err = upsertMembership(org.ID, creatorID, organization.RoleAdmin).ToSql()
		if err != nil {
			return fmt.Errorf("build creator membership query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("create creator membership failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *pgxRepository) UpsertInvitedMember(ctx context.Context, email string, orgID string, role organization.Role) (string, error) {
	var userID string

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// The no-op update makes RETURNING yield the existing row on conflict.
		query, args, err := psql.Insert("public.users").
			Columns("email", "is_active").
			Values(email, true).
			Suffix("ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert user query failed: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&userID); err != nil {
			return fmt.Errorf("upsert invited user failed: %w", err)
		}

		query, args, err = psql.Insert("public.profiles").
			Columns("user_id", "password_set").
			Values(userID, false).
			Suffix("ON CONFLICT (user_id) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert profile query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert invited profile failed: %w", err)
		}

		query, args, err = upsertMembership(orgID, userID, role).ToSql()
		if err != nil {
			return fmt.Errorf("build upsert membership query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return ErrUnknownOrganization
			}
			return fmt.Errorf("upsert invited membership failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

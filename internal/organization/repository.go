package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing organization data.
type Repository interface {
	// Organization methods
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error)
	// Member methods
	GetMemberRole(ctx context.Context, orgID string, userID string) (Role, error)
	// EarliestMemberRole returns the role of the user's oldest membership, or RoleNone.
	EarliestMemberRole(ctx context.Context, userID string) (Role, error)
	ListMembers(ctx context.Context, orgID string, filter MemberFilter) ([]*Member, int, error)
	// Platform admin methods
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
	AddPlatformAdmin(ctx context.Context, userID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new organization repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// ------------------------
//   Organization methods
// ------------------------

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	query, args, err := psql.Select("id", "name", "created_by", "created_at").
		From("public.organizations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get organization query failed: %w", err)
	}

	var org Organization
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&org.ID, &org.Name, &org.CreatedBy, &org.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return &org, nil
}

func (r *pgxRepository) List(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error) {
	// Base query with window function for total count
	queryBuilder := psql.Select("o.id", "o.name", "o.created_by", "o.created_at", "count(*) OVER() AS total_count").
		From("public.organizations o").
		OrderBy("o.created_at ASC")

	if filter.MemberID != "" {
		queryBuilder = queryBuilder.
			Join("public.memberships m ON m.organization_id = o.id").
			Where(squirrel.Eq{"m.user_id": filter.MemberID})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list organizations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	var orgs []*Organization
	var total int

	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedBy, &o.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		orgs = append(orgs, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List rows failed: %w", err)
	}

	return orgs, total, nil
}

// ------------------------
//     Member methods
// ------------------------

// GetMemberRole returns RoleNone if the user is not a member of the organization.
func (r *pgxRepository) GetMemberRole(ctx context.Context, orgID string, userID string) (Role, error) {
	query, args, err := psql.Select("role").
		From("public.memberships").
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return RoleNone, fmt.Errorf("build get member role query failed: %w", err)
	}

	var role string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleNone, nil
		}
		return RoleNone, fmt.Errorf("GetMemberRole failed: %w", err)
	}
	return Role(role), nil
}

func (r *pgxRepository) EarliestMemberRole(ctx context.Context, userID string) (Role, error) {
	query, args, err := psql.Select("role").
		From("public.memberships").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC", "organization_id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return RoleNone, fmt.Errorf("build earliest member role query failed: %w", err)
	}

	var role string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleNone, nil
		}
		return RoleNone, fmt.Errorf("EarliestMemberRole failed: %w", err)
	}
	return Role(role), nil
}

// ListMembers retrieves members with their user details.
func (r *pgxRepository) ListMembers(ctx context.Context, orgID string, filter MemberFilter) ([]*Member, int, error) {
	queryBuilder := psql.Select(
		"u.id", "u.email", "m.role", "m.created_at",
		"count(*) OVER() AS total_count",
	).
		From("public.memberships m").
		Join("public.users u ON m.user_id = u.id").
		Where(squirrel.Eq{"m.organization_id": orgID}).
		OrderBy("m.created_at ASC")

	if filter.Role != RoleNone {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"m.role": string(filter.Role)})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list members query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListMembers failed: %w", err)
	}
	defer rows.Close()

	var members []*Member
	var total int

	for rows.Next() {
		var m Member
		var role string
		// Scan total from the window function
		if err := rows.Scan(&m.UserID, &m.Email, &role, &m.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan member failed: %w", err)
		}
		m.Role = Role(role)
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListMembers rows failed: %w", err)
	}

	return members, total, nil
}

// ------------------------
//  Platform admin methods
// ------------------------

func (r *pgxRepository) IsPlatformAdmin(ctx context.Context, userID string) (bool, error) {
	sql, args, err := psql.Select("1").
		From("public.platform_admins").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build platform admin query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("IsPlatformAdmin failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) AddPlatformAdmin(ctx context.Context, userID string) error {
	query, args, err := psql.Insert("public.platform_admins").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build add platform admin query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("AddPlatformAdmin failed: %w", err)
	}
	return nil
}

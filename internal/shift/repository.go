package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/daycare-sub-backend/internal/db"
)

// Repository defines methods for accessing shifts and claims.
// Every transition writes the claim and the shift status in one transaction
// and fails with ErrAlreadyClaimed or ErrStateChanged when the rows no longer
// match the expected state.
type Repository interface {
	Create(ctx context.Context, s *Shift) error
	GetByID(ctx context.Context, id string) (*Shift, error)
	List(ctx context.Context, filter Filter) ([]*Shift, int, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*Shift, error)

	Claim(ctx context.Context, shiftID, userID string, at time.Time) error
	Start(ctx context.Context, shiftID, claimID, userID string, at time.Time) error
	End(ctx context.Context, shiftID, claimID, userID string, at time.Time) error
	Verify(ctx context.Context, shiftID, verifierID string, at time.Time) error
	Cancel(ctx context.Context, shiftID, claimID string, at time.Time) error

	RosterByOrganization(ctx context.Context, orgID string) ([]*RosterRow, error)
	RosterByShift(ctx context.Context, shiftID string) ([]*RosterRow, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new shift repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var shiftColumns = []string{
	"s.id",
	"s.organization_id",
	"s.shift_date",
	"to_char(s.start_time, 'HH24:MI')",
	"to_char(s.end_time, 'HH24:MI')",
	"s.title",
	"s.notes",
	"s.status",
	"s.created_by",
	"s.created_at",
	"s.updated_at",
	"s.verified_at",
	"s.verified_by",
	"c.id",
	"c.user_id",
	"c.claimed_at",
	"c.check_in_at",
	"c.check_out_at",
}

func selectShifts(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(shiftColumns, extra...)...).
		From("public.shifts s").
		LeftJoin("public.shift_claims c ON c.shift_id = s.id")
}

// scanShift reads shiftColumns followed by any extra destinations.
func scanShift(row pgx.Row, extra ...any) (*Shift, error) {
	var s Shift
	var status string
	var claimID, claimUserID *string
	var claimedAt, checkInAt, checkOutAt *time.Time

	dest := []any{
		&s.ID, &s.OrganizationID, &s.Date, &s.StartTime, &s.EndTime,
		&s.Title, &s.Notes, &status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
		&s.VerifiedAt, &s.VerifiedBy,
		&claimID, &claimUserID, &claimedAt, &checkInAt, &checkOutAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	s.Status = Status(status)
	if claimID != nil {
		s.Claim = &Claim{
			ID:         *claimID,
			ShiftID:    s.ID,
			UserID:     *claimUserID,
			ClaimedAt:  *claimedAt,
			CheckInAt:  checkInAt,
			CheckOutAt: checkOutAt,
		}
	}
	return &s, nil
}

func (r *pgxRepository) Create(ctx context.Context, s *Shift) error {
	query, args, err := psql.Insert("public.shifts").
		Columns("organization_id", "shift_date", "start_time", "end_time", "title", "notes", "status", "created_by").
		Values(
			s.OrganizationID,
			s.Date,
			squirrel.Expr("?::text::time", s.StartTime),
			squirrel.Expr("?::text::time", s.EndTime),
			s.Title,
			s.Notes,
			string(StatusOpen),
			s.CreatedBy,
		).
		Suffix("RETURNING id, status, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create shift query failed: %w", err)
	}

	var status string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return ErrInvalidTimeRange
		}
		return fmt.Errorf("Create shift failed: %w", err)
	}
	s.Status = Status(status)
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Shift, error) {
	query, args, err := selectShifts().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get shift query failed: %w", err)
	}

	s, err := scanShift(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Shift, int, error) {
	// Base query with window function for total count
	queryBuilder := selectShifts("count(*) OVER() AS total_count").
		Where(squirrel.Eq{"s.organization_id": filter.OrganizationID}).
		OrderBy("s.shift_date ASC", "s.start_time ASC")

	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"s.status": string(filter.Status)})
	}
	if filter.From != nil {
		queryBuilder = queryBuilder.Where(squirrel.GtOrEq{"s.shift_date": *filter.From})
	}
	if filter.To != nil {
		queryBuilder = queryBuilder.Where(squirrel.LtOrEq{"s.shift_date": *filter.To})
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
		return nil, 0, fmt.Errorf("build list shifts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	var shifts []*Shift
	var total int

	for rows.Next() {
		s, err := scanShift(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan shift failed: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List rows failed: %w", err)
	}

	return shifts, total, nil
}

func (r *pgxRepository) ListByOrganization(ctx context.Context, orgID string) ([]*Shift, error) {
	sql, args, err := selectShifts().
		Where(squirrel.Eq{"s.organization_id": orgID}).
		OrderBy("s.shift_date ASC", "s.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list organization shifts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ListByOrganization failed: %w", err)
	}
	defer rows.Close()

	var shifts []*Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift failed: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOrganization rows failed: %w", err)
	}
	return shifts, nil
}

// ------------------------
//       Transitions
// ------------------------

// execOne runs a conditional statement and returns failed when no row matched.
func execOne(ctx context.Context, tx pgx.Tx, b squirrel.Sqlizer, failed error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build transition query failed: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return transitionError(err)
	}
	if ct.RowsAffected() == 0 {
		return failed
	}
	return nil
}

// transitionError maps lock conflicts between concurrent transitions to
// ErrStateChanged.
func transitionError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure, pgerrcode.LockNotAvailable:
			return ErrStateChanged
		}
	}
	return fmt.Errorf("transition failed: %w", err)
}

// Every transition updates the shifts row before touching shift_claims, so
// concurrent transitions on one shift queue on the same row lock.

// Claim flips an open shift to claimed and inserts the claim. The status
// predicate serializes concurrent claims on the row lock; the unique index on
// shift_claims.shift_id rejects any claim that slips past it.
func (r *pgxRepository) Claim(ctx context.Context, shiftID, userID string, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := execOne(ctx, tx, psql.Update("public.shifts").
			Set("status", string(StatusClaimed)).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": shiftID, "status": string(StatusOpen)}),
			ErrAlreadyClaimed)
		if err != nil {
			return err
		}

		query, args, err := psql.Insert("public.shift_claims").
			Columns("shift_id", "user_id", "claimed_at").
			Values(shiftID, userID, at).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert claim query failed: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("insert claim failed: %w", err)
		}
		return nil
	})
}

func (r *pgxRepository) Start(ctx context.Context, shiftID, claimID, userID string, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := execOne(ctx, tx, psql.Update("public.shifts").
			Set("updated_at", at).
			Where(squirrel.Eq{"id": shiftID, "status": string(StatusClaimed)}),
			ErrStateChanged)
		if err != nil {
			return err
		}

		return execOne(ctx, tx, psql.Update("public.shift_claims").
			Set("check_in_at", at).
			Where(squirrel.Eq{"id": claimID, "shift_id": shiftID, "user_id": userID, "check_in_at": nil}),
			ErrStateChanged)
	})
}

func (r *pgxRepository) End(ctx context.Context, shiftID, claimID, userID string, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := execOne(ctx, tx, psql.Update("public.shifts").
			Set("status", string(StatusCompleted)).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": shiftID, "status": string(StatusClaimed)}),
			ErrStateChanged)
		if err != nil {
			return err
		}

		return execOne(ctx, tx, psql.Update("public.shift_claims").
			Set("check_out_at", at).
			Where(squirrel.Eq{"id": claimID, "shift_id": shiftID, "user_id": userID, "check_out_at": nil}).
			Where(squirrel.NotEq{"check_in_at": nil}),
			ErrStateChanged)
	})
}

func (r *pgxRepository) Verify(ctx context.Context, shiftID, verifierID string, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return execOne(ctx, tx, psql.Update("public.shifts").
			Set("status", string(StatusVerified)).
			Set("verified_at", at).
			Set("verified_by", verifierID).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": shiftID, "status": string(StatusCompleted)}),
			ErrStateChanged)
	})
}

func (r *pgxRepository) Cancel(ctx context.Context, shiftID, claimID string, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := execOne(ctx, tx, psql.Update("public.shifts").
			Set("status", string(StatusOpen)).
			Set("updated_at", at).
			Where(squirrel.Eq{"id": shiftID, "status": string(StatusClaimed)}),
			ErrStateChanged)
		if err != nil {
			return err
		}

		return execOne(ctx, tx, psql.Delete("public.shift_claims").
			Where(squirrel.Eq{"id": claimID, "shift_id": shiftID, "check_in_at": nil}),
			ErrStateChanged)
	})
}

// ------------------------
//         Rosters
// ------------------------

func (r *pgxRepository) roster(ctx context.Context, where squirrel.Sqlizer) ([]*RosterRow, error) {
	sql, args, err := psql.Select(
		"s.id", "s.shift_date",
		"to_char(s.start_time, 'HH24:MI')", "to_char(s.end_time, 'HH24:MI')",
		"s.title", "s.status",
		"c.id", "u.id", "u.email", "c.claimed_at", "c.check_in_at", "c.check_out_at",
	).
		From("public.shift_claims c").
		Join("public.shifts s ON s.id = c.shift_id").
		Join("public.users u ON u.id = c.user_id").
		Where(where).
		OrderBy("s.shift_date ASC", "s.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build roster query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("roster query failed: %w", err)
	}
	defer rows.Close()

	var roster []*RosterRow
	for rows.Next() {
		var row RosterRow
		var status string
		if err := rows.Scan(
			&row.ShiftID, &row.Date, &row.StartTime, &row.EndTime, &row.Title, &status,
			&row.ClaimID, &row.UserID, &row.Email, &row.ClaimedAt, &row.CheckInAt, &row.CheckOutAt,
		); err != nil {
			return nil, fmt.Errorf("scan roster row failed: %w", err)
		}
		row.Status = Status(status)
		roster = append(roster, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster rows failed: %w", err)
	}
	return roster, nil
}

func (r *pgxRepository) RosterByOrganization(ctx context.Context, orgID string) ([]*RosterRow, error) {
	return r.roster(ctx, squirrel.Eq{"s.organization_id": orgID})
}

func (r *pgxRepository) RosterByShift(ctx context.Context, shiftID string) ([]*RosterRow, error) {
	return r.roster(ctx, squirrel.Eq{"s.id": shiftID})
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/pkg/platform/sentinel"
	txcontext "complaintdesk/pkg/platform/tx"
)

// uniqueViolation is the postgres error code raised by the identity-pair
// unique index when two first submissions race.
const uniqueViolation = "23505"

// Postgres persists complaints in PostgreSQL. All statements join a
// transaction carried in context (pkg/platform/tx) when one is open, so the
// service's lookup-then-write sequence runs inside a single transactional
// boundary.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed complaint store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const complaintColumns = "id, product_id, content, creation_date, complainant, country, claim_counter"

// FindByIdentity returns the complaint for the exact identity pair. Inside a
// transaction the row is locked (FOR UPDATE) so concurrent duplicate
// submissions cannot both read the same counter value.
func (s *Postgres) FindByIdentity(ctx context.Context, productID int64, complainant string) (*models.Complaint, error) {
	query := `
		SELECT ` + complaintColumns + `
		FROM complaints
		WHERE product_id = $1 AND complainant = $2
		FOR UPDATE
	`
	row := txcontext.Within(ctx, s.db).QueryRowContext(ctx, query, productID, complainant)
	return scanComplaint(row)
}

// FindByID returns the complaint with the given id.
func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	query := `
		SELECT ` + complaintColumns + `
		FROM complaints
		WHERE id = $1
	`
	row := txcontext.Within(ctx, s.db).QueryRowContext(ctx, query, id)
	return scanComplaint(row)
}

// Save inserts the complaint when it has no id yet, assigning one, and
// updates the mutable columns otherwise. An insert that loses the
// identity-pair race returns sentinel.ErrConflict.
func (s *Postgres) Save(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	if complaint.ID == uuid.Nil {
		return s.insert(ctx, complaint)
	}
	return s.update(ctx, complaint)
}

func (s *Postgres) insert(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	saved := *complaint
	saved.ID = uuid.New()

	query := `
		INSERT INTO complaints (id, product_id, content, creation_date, complainant, country, claim_counter)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Within(ctx, s.db).ExecContext(ctx, query,
		saved.ID,
		saved.ProductID,
		saved.Content,
		saved.CreationDate,
		saved.Complainant,
		saved.Country,
		saved.ClaimCounter,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("insert complaint: %w", sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("insert complaint: %w", err)
	}
	return &saved, nil
}

func (s *Postgres) update(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	// Identity, country, and creation date are immutable; only content and
	// the claim counter ever change after creation.
	query := `
		UPDATE complaints
		SET content = $2, claim_counter = $3
		WHERE id = $1
	`
	res, err := txcontext.Within(ctx, s.db).ExecContext(ctx, query,
		complaint.ID,
		complaint.Content,
		complaint.ClaimCounter,
	)
	if err != nil {
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	saved := *complaint
	return &saved, nil
}

// FindAll returns one page over all complaints.
func (s *Postgres) FindAll(ctx context.Context, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(ctx, "", nil, page)
}

// FindByProductID returns one page of complaints with an exact product match.
func (s *Postgres) FindByProductID(ctx context.Context, productID int64, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(ctx, "WHERE product_id = $1", []any{productID}, page)
}

// FindByComplainantContaining returns one page of complaints whose
// complainant contains the substring, ignoring case.
func (s *Postgres) FindByComplainantContaining(ctx context.Context, complainant string, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(ctx, "WHERE complainant ILIKE '%' || $1 || '%'", []any{complainant}, page)
}

// FindByProductIDAndComplainantContaining combines the exact product match
// with the case-insensitive complainant containment.
func (s *Postgres) FindByProductIDAndComplainantContaining(ctx context.Context, productID int64, complainant string, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(ctx, "WHERE product_id = $1 AND complainant ILIKE '%' || $2 || '%'", []any{productID, complainant}, page)
}

func (s *Postgres) pageOf(ctx context.Context, where string, args []any, page models.PageRequest) (*models.Page, error) {
	q := txcontext.Within(ctx, s.db)

	var total int64
	countQuery := "SELECT COUNT(*) FROM complaints " + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM complaints %s ORDER BY creation_date, id LIMIT $%d OFFSET $%d",
		complaintColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := q.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	// page.Size is client-supplied; cap the preallocation so an oversized
	// request cannot force a huge buffer before any row is scanned.
	content := make([]*models.Complaint, 0, min(page.Size, 1024))
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		content = append(content, complaint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return models.NewPage(content, total, page), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ID,
		&c.ProductID,
		&c.Content,
		&c.CreationDate,
		&c.Complainant,
		&c.Country,
		&c.ClaimCounter,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	return &c, nil
}

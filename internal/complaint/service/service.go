// Package service holds the complaint intake and query logic: the
// create-vs-merge decision for incoming complaints and the filter dispatch
// for paginated listings. Persistence and country resolution are
// constructor-injected capabilities.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	complaintmetrics "complaintdesk/internal/complaint/metrics"
	"complaintdesk/internal/complaint/models"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/sentinel"
	"complaintdesk/pkg/requestcontext"
)

// ComplaintStore is the persistence capability the service requires.
// Implementations return sentinel.ErrNotFound for missing records and
// sentinel.ErrConflict when an insert loses the identity-pair race.
type ComplaintStore interface {
	FindByIdentity(ctx context.Context, productID int64, complainant string) (*models.Complaint, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	Save(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error)
	FindAll(ctx context.Context, page models.PageRequest) (*models.Page, error)
	FindByProductID(ctx context.Context, productID int64, page models.PageRequest) (*models.Page, error)
	FindByComplainantContaining(ctx context.Context, complainant string, page models.PageRequest) (*models.Page, error)
	FindByProductIDAndComplainantContaining(ctx context.Context, productID int64, complainant string, page models.PageRequest) (*models.Page, error)
}

// CountryResolver derives an ISO country code from a network address.
type CountryResolver interface {
	CountryFromAddr(ctx context.Context, addr string) (string, error)
}

// StoreTx provides the transactional boundary for the lookup-then-write
// sequence in Submit. The postgres runner wraps a database transaction; the
// in-memory runner serializes submissions per identity pair with sharded
// locks. Without it two concurrent first submissions for the same pair could
// both observe "not found" and both create.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates complaint intake and queries.
type Service struct {
	store    ComplaintStore
	resolver CountryResolver
	tx       StoreTx
	logger   *slog.Logger
	metrics  *complaintmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *complaintmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New constructs the complaint service with required dependencies.
func New(store ComplaintStore, resolver CountryResolver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewInMemoryStoreTx()
	}
	return s
}

// SubmitRequest carries one incoming complaint submission.
type SubmitRequest struct {
	ProductID   int64
	Complainant string
	Content     string
	SourceAddr  string
}

func (r SubmitRequest) validate() error {
	if r.ProductID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "productId is required")
	}
	if strings.TrimSpace(r.Complainant) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "complainant is required")
	}
	if r.Content == "" {
		return dErrors.New(dErrors.CodeBadRequest, "content is required")
	}
	if utf8.RuneCountInString(r.Content) > models.MaxContentLength {
		return dErrors.New(dErrors.CodeBadRequest, "content must be 1000 characters or less")
	}
	if strings.TrimSpace(r.SourceAddr) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "source address is required")
	}
	return nil
}

// Submit records a complaint, merging it into the existing record for the
// same (productID, complainant) pair when one exists.
//
// The country is resolved on every submission, before the identity lookup,
// exactly as the external contract requires; on the duplicate path the result
// is discarded because the stored country is never overwritten. The identity
// lookup is an exact match, distinct from the fuzzy filtering in List.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Complaint, error) {
	start := time.Now()
	if err := req.validate(); err != nil {
		return nil, err
	}

	country, err := s.resolver.CountryFromAddr(ctx, req.SourceAddr)
	if err != nil {
		s.logger.WarnContext(ctx, "country resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "country resolution failed")
	}

	complaint, created, err := s.submitOnce(ctx, req, country)
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost the create race to a concurrent first submission. The winner's
		// row is committed now, so a rerun finds it and merges.
		complaint, created, err = s.submitOnce(ctx, req, country)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid complaint")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit complaint")
	}

	if s.metrics != nil {
		if created {
			s.metrics.IncrementCreated()
		} else {
			s.metrics.IncrementMerged()
		}
		s.metrics.ObserveSubmit(start)
	}
	s.logger.InfoContext(ctx, "complaint submitted",
		"request_id", requestcontext.RequestID(ctx),
		"complaint_id", complaint.ID.String(),
		"created", created,
		"claim_counter", complaint.ClaimCounter,
	)
	return complaint, nil
}

// submitOnce runs one lookup-then-write attempt inside the transactional
// boundary. Returns created=true when a new record was persisted.
func (s *Service) submitOnce(ctx context.Context, req SubmitRequest, country string) (*models.Complaint, bool, error) {
	var (
		result  *models.Complaint
		created bool
	)
	ctx = withIdentityKey(ctx, identityKey(req.ProductID, req.Complainant))
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.store.FindByIdentity(txCtx, req.ProductID, req.Complainant)
		switch {
		case err == nil:
			// Duplicate submission: only the counter moves. The newly
			// submitted content and the freshly resolved country are
			// discarded; id, creation date, and prior content stay intact.
			existing.IncrementClaimCounter()
			result, err = s.store.Save(txCtx, existing)
			return err
		case errors.Is(err, sentinel.ErrNotFound):
			complaint, err := models.NewComplaint(req.ProductID, req.Complainant, req.Content, country, requestcontext.Now(txCtx))
			if err != nil {
				return err
			}
			result, err = s.store.Save(txCtx, complaint)
			if err != nil {
				return err
			}
			created = true
			return nil
		default:
			return fmt.Errorf("find by identity: %w", err)
		}
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// UpdateContent replaces the description of the complaint with the given id.
// Counter, country, creation date, and the identity pair are untouched.
func (s *Service) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.Complaint, error) {
	if content == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "content must be 1000 characters or less")
	}

	var result *models.Complaint
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		complaint, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := complaint.ReplaceContent(content); err != nil {
			return err
		}
		result, err = s.store.Save(txCtx, complaint)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid content")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update complaint")
	}
	return result, nil
}

// ListFilter selects complaints for listing. Presence of a field, not its
// value, decides the query shape.
type ListFilter struct {
	ProductID   *int64
	Complainant *string
}

// List returns one page of complaints matching the filter combination.
// Product filtering is an exact match; complainant filtering is
// case-insensitive substring containment. Page metadata comes from the store
// and is passed through unmodified.
func (s *Service) List(ctx context.Context, filter ListFilter, page models.PageRequest) (*models.Page, error) {
	start := time.Now()
	if page.Number < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "page must not be negative")
	}
	if page.Size < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "size must be at least 1")
	}

	var (
		result *models.Page
		err    error
	)
	switch {
	case filter.ProductID != nil && filter.Complainant != nil:
		result, err = s.store.FindByProductIDAndComplainantContaining(ctx, *filter.ProductID, *filter.Complainant, page)
	case filter.ProductID != nil:
		result, err = s.store.FindByProductID(ctx, *filter.ProductID, page)
	case filter.Complainant != nil:
		result, err = s.store.FindByComplainantContaining(ctx, *filter.Complainant, page)
	default:
		result, err = s.store.FindAll(ctx, page)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}

	if s.metrics != nil {
		s.metrics.ObserveList(start)
	}
	return result, nil
}

// GetByID returns the complaint with the given id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch complaint")
	}
	return complaint, nil
}

func identityKey(productID int64, complainant string) string {
	return fmt.Sprintf("%d|%s", productID, complainant)
}

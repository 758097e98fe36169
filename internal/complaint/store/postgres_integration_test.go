//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/complaint/store"
	"complaintdesk/pkg/platform/sentinel"
	txcontext "complaintdesk/pkg/platform/tx"
	"complaintdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "complaints"))
}

func (s *PostgresStoreSuite) newComplaint(productID int64, complainant string) *models.Complaint {
	c, err := models.NewComplaint(productID, complainant, "content", "US", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) insert(productID int64, complainant string) *models.Complaint {
	saved, err := s.store.Save(context.Background(), s.newComplaint(productID, complainant))
	s.Require().NoError(err)
	return saved
}

func (s *PostgresStoreSuite) TestSaveAssignsIDAndRoundTrips() {
	ctx := context.Background()
	saved := s.insert(1, "John Doe")
	s.NotEqual(uuid.Nil, saved.ID)

	found, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)
	s.Equal(saved.ProductID, found.ProductID)
	s.Equal(saved.Complainant, found.Complainant)
	s.Equal(saved.Content, found.Content)
	s.Equal(saved.Country, found.Country)
	s.Equal(saved.ClaimCounter, found.ClaimCounter)
	s.True(saved.CreationDate.Equal(found.CreationDate))
}

func (s *PostgresStoreSuite) TestFindByIdentityIsExactMatch() {
	ctx := context.Background()
	saved := s.insert(1, "John Doe")

	found, err := s.store.FindByIdentity(ctx, 1, "John Doe")
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)

	_, err = s.store.FindByIdentity(ctx, 1, "john doe")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByIdentity(ctx, 2, "John Doe")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentFirstSubmissions verifies the identity-pair unique index:
// racing inserts for the same pair produce exactly one row.
func (s *PostgresStoreSuite) TestConcurrentFirstSubmissions() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Save(ctx, s.newComplaint(1, "John Doe"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one insert should win")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict")
}

// TestConcurrentMergesInTransactions verifies that the FOR UPDATE row lock in
// FindByIdentity serializes concurrent read-modify-write merges, so no
// counter increment is lost.
func (s *PostgresStoreSuite) TestConcurrentMergesInTransactions() {
	ctx := context.Background()
	created := s.insert(1, "John Doe")

	const goroutines = 10
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx, err := s.postgres.DB.BeginTx(ctx, nil)
			if err != nil {
				failures.Add(1)
				return
			}
			txCtx := txcontext.WithTx(ctx, tx)

			existing, err := s.store.FindByIdentity(txCtx, 1, "John Doe")
			if err != nil {
				_ = tx.Rollback()
				failures.Add(1)
				return
			}
			existing.IncrementClaimCounter()
			if _, err := s.store.Save(txCtx, existing); err != nil {
				_ = tx.Rollback()
				failures.Add(1)
				return
			}
			if err := tx.Commit(); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	final, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(1+goroutines, final.ClaimCounter)
}

func (s *PostgresStoreSuite) TestUpdatePersistsOnlyMutableColumns() {
	ctx := context.Background()
	saved := s.insert(1, "John Doe")

	saved.IncrementClaimCounter()
	s.Require().NoError(saved.ReplaceContent("revised"))
	_, err := s.store.Save(ctx, saved)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal("revised", found.Content)
	s.Equal(2, found.ClaimCounter)
	s.Equal("US", found.Country)
}

func (s *PostgresStoreSuite) TestUpdateUnknownIDIsNotFound() {
	c := s.newComplaint(1, "John Doe")
	c.ID = uuid.New()

	_, err := s.store.Save(context.Background(), c)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindByIDUnknownIsNotFound() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFilters() {
	ctx := context.Background()
	john := s.insert(1, "John Doe")
	jane := s.insert(2, "Jane Doe")
	s.insert(3, "Alice Smith")

	page := models.PageRequest{Number: 0, Size: 10}

	s.Run("by product id", func() {
		result, err := s.store.FindByProductID(ctx, 2, page)
		s.Require().NoError(err)
		s.Require().Len(result.Content, 1)
		s.Equal(jane.ID, result.Content[0].ID)
	})

	s.Run("by complainant containment, case-insensitive", func() {
		result, err := s.store.FindByComplainantContaining(ctx, "DOE", page)
		s.Require().NoError(err)
		s.Len(result.Content, 2)
	})

	s.Run("by product id and complainant", func() {
		result, err := s.store.FindByProductIDAndComplainantContaining(ctx, 1, "doe", page)
		s.Require().NoError(err)
		s.Require().Len(result.Content, 1)
		s.Equal(john.ID, result.Content[0].ID)
	})

	s.Run("all", func() {
		result, err := s.store.FindAll(ctx, page)
		s.Require().NoError(err)
		s.Len(result.Content, 3)
		s.Equal(int64(3), result.TotalElements)
	})
}

func (s *PostgresStoreSuite) TestPaginationMetadata() {
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		s.insert(int64(i+1), fmt.Sprintf("Complainant %02d", i))
	}

	first, err := s.store.FindAll(ctx, models.PageRequest{Number: 0, Size: 10})
	s.Require().NoError(err)
	s.Len(first.Content, 10)
	s.Equal(int64(15), first.TotalElements)
	s.Equal(2, first.TotalPages)
	s.Equal(0, first.Number)
	s.Equal(10, first.Size)

	second, err := s.store.FindAll(ctx, models.PageRequest{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Len(second.Content, 5)
	s.Equal(1, second.Number)

	past, err := s.store.FindAll(ctx, models.PageRequest{Number: 5, Size: 10})
	s.Require().NoError(err)
	s.Empty(past.Content)
	s.Equal(int64(15), past.TotalElements)
}

func (s *PostgresStoreSuite) TestOversizedPageRequest() {
	ctx := context.Background()
	s.insert(1, "John Doe")
	s.insert(2, "Jane Doe")

	result, err := s.store.FindAll(ctx, models.PageRequest{Number: 0, Size: 1 << 30})
	s.Require().NoError(err)
	s.Len(result.Content, 2)
	s.Equal(int64(2), result.TotalElements)
	s.Equal(1, result.TotalPages)
}

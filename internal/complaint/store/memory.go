// Package store provides the complaint persistence implementations: an
// in-memory store for tests and local runs, and a PostgreSQL store for
// production.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/pkg/platform/sentinel"
)

// InMemory keeps complaints in a map guarded by a RWMutex. It mirrors the
// postgres store's contract, including the unique identity-pair backstop:
// inserting a second record for an existing (productID, complainant) pair
// fails with sentinel.ErrConflict.
type InMemory struct {
	mu         sync.RWMutex
	complaints map[uuid.UUID]*models.Complaint
	byIdentity map[string]uuid.UUID
}

// NewInMemory creates an empty in-memory complaint store.
func NewInMemory() *InMemory {
	return &InMemory{
		complaints: make(map[uuid.UUID]*models.Complaint),
		byIdentity: make(map[string]uuid.UUID),
	}
}

func identityKey(productID int64, complainant string) string {
	return fmt.Sprintf("%d|%s", productID, complainant)
}

// FindByIdentity returns the complaint for the exact identity pair.
func (s *InMemory) FindByIdentity(_ context.Context, productID int64, complainant string) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentity[identityKey(productID, complainant)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.complaints[id]), nil
}

// FindByID returns the complaint with the given id.
func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	complaint, ok := s.complaints[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(complaint), nil
}

// Save inserts the complaint when it has no id yet, assigning one, and
// updates the stored record otherwise.
func (s *InMemory) Save(_ context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(complaint.ProductID, complaint.Complainant)
	if complaint.ID == uuid.Nil {
		if _, exists := s.byIdentity[key]; exists {
			return nil, sentinel.ErrConflict
		}
		stored := clone(complaint)
		stored.ID = uuid.New()
		s.complaints[stored.ID] = stored
		s.byIdentity[key] = stored.ID
		return clone(stored), nil
	}

	if _, ok := s.complaints[complaint.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	stored := clone(complaint)
	s.complaints[stored.ID] = stored
	s.byIdentity[key] = stored.ID
	return clone(stored), nil
}

// FindAll returns one page over all complaints.
func (s *InMemory) FindAll(ctx context.Context, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(func(*models.Complaint) bool { return true }, page)
}

// FindByProductID returns one page of complaints with an exact product match.
func (s *InMemory) FindByProductID(_ context.Context, productID int64, page models.PageRequest) (*models.Page, error) {
	return s.pageOf(func(c *models.Complaint) bool { return c.ProductID == productID }, page)
}

// FindByComplainantContaining returns one page of complaints whose
// complainant contains the substring, ignoring case.
func (s *InMemory) FindByComplainantContaining(_ context.Context, complainant string, page models.PageRequest) (*models.Page, error) {
	needle := strings.ToLower(complainant)
	return s.pageOf(func(c *models.Complaint) bool {
		return strings.Contains(strings.ToLower(c.Complainant), needle)
	}, page)
}

// FindByProductIDAndComplainantContaining combines the exact product match
// with the case-insensitive complainant containment.
func (s *InMemory) FindByProductIDAndComplainantContaining(_ context.Context, productID int64, complainant string, page models.PageRequest) (*models.Page, error) {
	needle := strings.ToLower(complainant)
	return s.pageOf(func(c *models.Complaint) bool {
		return c.ProductID == productID && strings.Contains(strings.ToLower(c.Complainant), needle)
	}, page)
}

func (s *InMemory) pageOf(match func(*models.Complaint) bool, page models.PageRequest) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		if match(c) {
			matched = append(matched, c)
		}
	}
	// Stable ordering so page windows do not shift between calls.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreationDate.Equal(matched[j].CreationDate) {
			return matched[i].CreationDate.Before(matched[j].CreationDate)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}

	content := make([]*models.Complaint, 0, end-start)
	for _, c := range matched[start:end] {
		content = append(content, clone(c))
	}
	return models.NewPage(content, total, page), nil
}

func clone(c *models.Complaint) *models.Complaint {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

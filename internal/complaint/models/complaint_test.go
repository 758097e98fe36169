package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "complaintdesk/pkg/domain-errors"
)

func TestNewComplaint(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("valid complaint starts with counter 1", func(t *testing.T) {
		c, err := NewComplaint(1, "John Doe", "broken on arrival", "US", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.ProductID)
		assert.Equal(t, "John Doe", c.Complainant)
		assert.Equal(t, "broken on arrival", c.Content)
		assert.Equal(t, "US", c.Country)
		assert.Equal(t, 1, c.ClaimCounter)
		assert.Equal(t, now, c.CreationDate)
		assert.Equal(t, uuid.Nil, c.ID, "id must stay unset until the store assigns one")
	})

	t.Run("rejects non-positive product id", func(t *testing.T) {
		_, err := NewComplaint(0, "John Doe", "content", "US", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects empty complainant", func(t *testing.T) {
		_, err := NewComplaint(1, "  ", "content", "US", now)
		require.Error(t, err)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := NewComplaint(1, "John Doe", "", "US", now)
		require.Error(t, err)
	})

	t.Run("accepts content at the 1000 character bound", func(t *testing.T) {
		_, err := NewComplaint(1, "John Doe", strings.Repeat("x", MaxContentLength), "US", now)
		require.NoError(t, err)
	})

	t.Run("rejects content over the bound", func(t *testing.T) {
		_, err := NewComplaint(1, "John Doe", strings.Repeat("x", MaxContentLength+1), "US", now)
		require.Error(t, err)
	})

	t.Run("bound counts characters, not bytes", func(t *testing.T) {
		// "ż" is 2 bytes; 1000 of them are still within the bound.
		_, err := NewComplaint(1, "John Doe", strings.Repeat("ż", MaxContentLength), "US", now)
		require.NoError(t, err)

		_, err = NewComplaint(1, "John Doe", strings.Repeat("ż", MaxContentLength+1), "US", now)
		require.Error(t, err)
	})

	t.Run("rejects malformed country code", func(t *testing.T) {
		for _, country := range []string{"", "U", "USA"} {
			_, err := NewComplaint(1, "John Doe", "content", country, now)
			require.Error(t, err, "country %q", country)
		}
	})
}

func TestIncrementClaimCounter(t *testing.T) {
	now := time.Now()
	c, err := NewComplaint(1, "John Doe", "content", "US", now)
	require.NoError(t, err)

	c.IncrementClaimCounter()
	c.IncrementClaimCounter()
	assert.Equal(t, 3, c.ClaimCounter)
	assert.Equal(t, "content", c.Content, "counter moves must not touch content")
}

func TestReplaceContent(t *testing.T) {
	now := time.Now()
	c, err := NewComplaint(1, "John Doe", "original", "US", now)
	require.NoError(t, err)

	require.NoError(t, c.ReplaceContent("revised"))
	assert.Equal(t, "revised", c.Content)
	assert.Equal(t, 1, c.ClaimCounter)

	require.Error(t, c.ReplaceContent(""))
	require.Error(t, c.ReplaceContent(strings.Repeat("x", MaxContentLength+1)))
	assert.Equal(t, "revised", c.Content, "failed replacement must not mutate")
}

func TestNewPage(t *testing.T) {
	t.Run("computes total pages with remainder", func(t *testing.T) {
		page := NewPage(nil, 15, PageRequest{Number: 0, Size: 10})
		assert.Equal(t, int64(15), page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 0, page.Number)
		assert.Equal(t, 10, page.Size)
	})

	t.Run("empty result has zero pages", func(t *testing.T) {
		page := NewPage(nil, 0, PageRequest{Number: 0, Size: 10})
		assert.Equal(t, 0, page.TotalPages)
	})
}

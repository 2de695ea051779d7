package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	domainerrors "github.com/pawbridge/message-security-backend/internal/domain/errors"
)

type memoryRepo struct {
	records   []*access.AttemptRecord
	insertErr error
	lastQuery QueryFilters
}

func (r *memoryRepo) Insert(ctx context.Context, record *access.AttemptRecord) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRepo) Query(ctx context.Context, filters QueryFilters) ([]*access.AttemptRecord, int, error) {
	r.lastQuery = filters
	return r.records, len(r.records), nil
}

func grantedRecord() *access.AttemptRecord {
	return access.NewAttemptRecord(access.Context{
		MessageID:   uuid.New(),
		UserID:      uuid.New(),
		AttemptedAt: time.Now(),
	}, true, access.DenialNone, 10)
}

func TestRecord(t *testing.T) {
	t.Run("valid record stored", func(t *testing.T) {
		repo := &memoryRepo{}
		svc := NewService(repo, nil)

		require.NoError(t, svc.Record(context.Background(), grantedRecord()))
		assert.Len(t, repo.records, 1)
	})

	t.Run("nil record rejected", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		err := svc.Record(context.Background(), nil)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
	})

	t.Run("decision-less record rejected", func(t *testing.T) {
		repo := &memoryRepo{}
		svc := NewService(repo, nil)

		rec := grantedRecord()
		rec.Granted = false // denied but no reason
		err := svc.Record(context.Background(), rec)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
		assert.Empty(t, repo.records)
	})

	t.Run("write failure surfaces as audit error", func(t *testing.T) {
		repo := &memoryRepo{insertErr: fmt.Errorf("connection reset")}
		svc := NewService(repo, nil)

		err := svc.Record(context.Background(), grantedRecord())
		require.Error(t, err)
		assert.True(t, domainerrors.IsCode(err, "AUDIT_WRITE_FAILED"))
		assert.False(t, domainerrors.IsRetryable(err))
	})
}

func TestQuery_PaginationDefaults(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)

	page, err := svc.Query(context.Background(), QueryFilters{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageLimit, page.Limit)
	assert.Equal(t, defaultPageLimit, repo.lastQuery.Limit)

	page, err = svc.Query(context.Background(), QueryFilters{Limit: 10_000, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, maxPageLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

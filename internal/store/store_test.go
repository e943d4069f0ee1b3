package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/rainlog/internal/rainfall"
)

func mustAmount(t *testing.T, s string) rainfall.Amount {
	t.Helper()
	a, err := rainfall.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func newRecord(t *testing.T, date rainfall.Date, amount string) rainfall.Record {
	return rainfall.Record{ID: uuid.NewString(), Date: date, Amount: mustAmount(t, amount)}
}

type storeFactory func(t *testing.T, allowMultiplePerDate bool) rainfall.Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, allow bool) rainfall.Store {
			return NewMemoryStore(allow)
		},
		"sqlite": func(t *testing.T, allow bool) rainfall.Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rain.db"), allow)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreInsertAndList(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, true)

			empty, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			day := rainfall.NewDate(2024, time.January, 5)
			a := newRecord(t, day, "10.25")
			b := newRecord(t, day, "0")

			_, err = s.Insert(ctx, a)
			require.NoError(t, err)
			_, err = s.Insert(ctx, b)
			require.NoError(t, err)

			got, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)

			byID := map[string]rainfall.Record{}
			for _, r := range got {
				byID[r.ID] = r
			}
			require.Contains(t, byID, a.ID)
			assert.Equal(t, "2024-01-05", byID[a.ID].Date.String())
			assert.True(t, byID[a.ID].Amount.Equal(a.Amount), "amount %s", byID[a.ID].Amount)
			assert.True(t, byID[b.ID].Amount.IsZero())
		})
	}
}

func TestStoreRejectsDuplicateDateWhenConfigured(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, false)
			day := rainfall.NewDate(2024, time.March, 1)

			_, err := s.Insert(ctx, newRecord(t, day, "1"))
			require.NoError(t, err)

			_, err = s.Insert(ctx, newRecord(t, day, "2"))
			assert.True(t, errors.Is(err, rainfall.ErrDuplicateDate), "got %v", err)

			_, err = s.Insert(ctx, newRecord(t, rainfall.NewDate(2024, time.March, 2), "2"))
			assert.NoError(t, err)

			got, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})
	}
}

func TestMemoryStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(true)
	day := rainfall.NewDate(2024, time.June, 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, rainfall.Record{ID: uuid.NewString(), Date: day, Amount: rainfall.AmountFromFloat(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(true)
	r := newRecord(t, rainfall.NewDate(2024, time.June, 1), "1")

	_, err := s.Insert(ctx, r)
	require.NoError(t, err)
	_, err = s.Insert(ctx, r)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestMemoryStoreCountsRecordsPerDate(t *testing.T) {
	ctx := context.Background()
	day := rainfall.NewDate(2024, time.June, 2)

	for _, allow := range []bool{true, false} {
		s := NewMemoryStore(allow)
		_, err := s.Insert(ctx, newRecord(t, day, "1"))
		require.NoError(t, err)
		_, err = s.Insert(ctx, newRecord(t, day, "2"))
		if allow {
			require.NoError(t, err)
			assert.Equal(t, 2, s.byDate[day.String()])
		} else {
			assert.ErrorIs(t, err, rainfall.ErrDuplicateDate)
			assert.Equal(t, 1, s.byDate[day.String()])
		}
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rain.db")

	s, err := NewSQLiteStore(path, true)
	require.NoError(t, err)
	r := newRecord(t, rainfall.NewDate(2023, time.December, 31), "12,4")
	_, err = s.Insert(ctx, r)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, true)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
	assert.Equal(t, "12.4", got[0].Amount.String())
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(Options{Backend: "postgres"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

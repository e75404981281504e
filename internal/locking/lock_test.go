// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = MigrateLocks(db)
	require.NoError(t, err)

	return db
}

func TestLocker_Acquire_Success(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	acquired, err := locker.Acquire(ctx, "user:1", "owner-1")

	require.NoError(t, err)
	assert.True(t, acquired)

	isLocked, lockedBy, err := locker.IsLocked(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, isLocked)
	assert.Equal(t, "owner-1", lockedBy)
}

func TestLocker_Acquire_AlreadyLocked(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	acquired1, err := locker.Acquire(ctx, "user:1", "owner-1")
	require.NoError(t, err)
	assert.True(t, acquired1)

	acquired2, err := locker.Acquire(ctx, "user:1", "owner-2")
	require.NoError(t, err)
	assert.False(t, acquired2)
}

func TestLocker_Acquire_SameOwner(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	acquired1, err := locker.Acquire(ctx, "user:1", "owner-1")
	require.NoError(t, err)
	assert.True(t, acquired1)

	acquired2, err := locker.Acquire(ctx, "user:1", "owner-1")
	require.NoError(t, err)
	assert.True(t, acquired2)
}

func TestLocker_Acquire_Expired(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t)).WithTTL(100 * time.Millisecond)

	acquired1, err := locker.Acquire(ctx, "user:1", "owner-1")
	require.NoError(t, err)
	assert.True(t, acquired1)

	time.Sleep(150 * time.Millisecond)

	acquired2, err := locker.Acquire(ctx, "user:1", "owner-2")
	require.NoError(t, err)
	assert.True(t, acquired2)
}

func TestLocker_Release(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	_, _ = locker.Acquire(ctx, "user:1", "owner-1")

	// Wrong owner is a no-op
	require.NoError(t, locker.Release(ctx, "user:1", "owner-2"))
	isLocked, _, _ := locker.IsLocked(ctx, "user:1")
	assert.True(t, isLocked)

	require.NoError(t, locker.Release(ctx, "user:1", "owner-1"))
	isLocked, _, _ = locker.IsLocked(ctx, "user:1")
	assert.False(t, isLocked)
}

func TestLocker_Extend(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t)).WithTTL(100 * time.Millisecond)

	_, _ = locker.Acquire(ctx, "user:1", "owner-1")

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, locker.Extend(ctx, "user:1", "owner-1"))

	time.Sleep(60 * time.Millisecond)
	isLocked, _, _ := locker.IsLocked(ctx, "user:1")
	assert.True(t, isLocked)

	var lockErr *LockError
	assert.ErrorAs(t, locker.Extend(ctx, "user:1", "owner-2"), &lockErr)
}

func TestLocker_WithLock(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	executed := false
	err := locker.WithLock(ctx, "user:1", func() error {
		executed = true
		isLocked, lockedBy, _ := locker.IsLocked(ctx, "user:1")
		assert.True(t, isLocked)
		assert.NotEmpty(t, lockedBy)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)

	isLocked, _, _ := locker.IsLocked(ctx, "user:1")
	assert.False(t, isLocked)
}

func TestLocker_WithLock_PropagatesError(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))
	boom := errors.New("boom")

	err := locker.WithLock(ctx, "user:1", func() error { return boom })

	assert.ErrorIs(t, err, boom)
	isLocked, _, _ := locker.IsLocked(ctx, "user:1")
	assert.False(t, isLocked)
}

func TestLocker_WithLock_Held(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t)).WithRetries(2)

	_, err := locker.Acquire(ctx, "user:1", "someone-else")
	require.NoError(t, err)

	called := false
	err = locker.WithLock(ctx, "user:1", func() error {
		called = true
		return nil
	})

	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "someone-else", lockErr.LockedBy)
	assert.False(t, called)
}

func TestLocker_WithLock_Serializes(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t)).WithRetries(20)

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "user:1", func() error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocker_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t)).WithTTL(50 * time.Millisecond)

	_, _ = locker.Acquire(ctx, "user:1", "owner-1")
	_, _ = locker.Acquire(ctx, "user:2", "owner-1")
	_, _ = locker.Acquire(ctx, "user:3", "owner-1")

	time.Sleep(100 * time.Millisecond)

	count, err := locker.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpdateWithVersion(t *testing.T) {
	db := setupTestDB(t)

	type VersionedRecord struct {
		ID      uint `gorm:"primaryKey"`
		Data    string
		Version int64 `gorm:"default:1"`
	}
	require.NoError(t, db.AutoMigrate(&VersionedRecord{}))

	record := VersionedRecord{Data: "initial", Version: 1}
	require.NoError(t, db.Create(&record).Error)

	err := UpdateWithVersion(db, "versioned_records", record.ID, 1, map[string]interface{}{
		"data": "updated",
	})
	require.NoError(t, err)

	var updated VersionedRecord
	require.NoError(t, db.First(&updated, record.ID).Error)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "updated", updated.Data)

	// Stale version
	err = UpdateWithVersion(db, "versioned_records", record.ID, 1, map[string]interface{}{
		"data": "stale",
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	assert.Contains(t, conflict.Error(), "expected version 1")

	// Missing row
	err = UpdateWithVersion(db, "versioned_records", 999, 1, map[string]interface{}{
		"data": "ghost",
	})
	require.Error(t, err)
	assert.False(t, errors.As(err, &conflict))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0

	err := RetryWithBackoff(3, 10*time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("save: %w", &ConflictError{Table: "memories", ID: 1})
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_MaxRetries(t *testing.T) {
	attempts := 0

	err := RetryWithBackoff(3, 1*time.Millisecond, func() error {
		attempts++
		return &ConflictError{Table: "memories", ID: 1}
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_OtherErrorsStop(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")

	err := RetryWithBackoff(3, 1*time.Millisecond, func() error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestConcurrentLocking(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(setupTestDB(t))

	const numOwners = 10
	results := make([]bool, numOwners)
	var wg sync.WaitGroup

	for i := 0; i < numOwners; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			acquired, _ := locker.Acquire(ctx, "contested", fmt.Sprintf("owner-%d", idx))
			results[idx] = acquired
		}(i)
	}

	wg.Wait()

	successCount := 0
	for _, r := range results {
		if r {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount)
}

func TestShareLock_IsExpired(t *testing.T) {
	lock := ShareLock{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, lock.IsExpired())

	lock.ExpiresAt = time.Now().Add(-time.Hour)
	assert.True(t, lock.IsExpired())
}

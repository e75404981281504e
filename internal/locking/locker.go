// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLockTTL is the default time-to-live for locks
const DefaultLockTTL = 30 * time.Second

// MaxRetries is the default number of attempts for locks and optimistic updates
const MaxRetries = 5

// RetryDelay is the initial delay between attempts
const RetryDelay = 50 * time.Millisecond

// Locker manages leased locks stored in the database
type Locker struct {
	db      *gorm.DB
	lockTTL time.Duration
	retries int
}

// NewLocker creates a new locker instance
func NewLocker(db *gorm.DB) *Locker {
	return &Locker{
		db:      db,
		lockTTL: DefaultLockTTL,
		retries: MaxRetries,
	}
}

// WithTTL sets a custom TTL for locks
func (l *Locker) WithTTL(ttl time.Duration) *Locker {
	l.lockTTL = ttl
	return l
}

// WithRetries sets a custom number of acquisition attempts
func (l *Locker) WithRetries(retries int) *Locker {
	l.retries = retries
	return l
}

// Acquire attempts to acquire the lock on key for owner.
// Returns true if acquired, false if another owner holds an unexpired lease.
func (l *Locker) Acquire(ctx context.Context, key, owner string) (bool, error) {
	now := time.Now()
	expiresAt := now.Add(l.lockTTL)
	db := l.db.WithContext(ctx)

	lock := ShareLock{
		Key:       key,
		Version:   1,
		LockedBy:  owner,
		LockedAt:  now,
		ExpiresAt: expiresAt,
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert lock: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var existing ShareLock
	if err := db.Where("lock_key = ?", key).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Released between insert and read
			return false, nil
		}
		return false, err
	}

	if !existing.IsExpired() && existing.LockedBy != owner {
		return false, nil
	}

	// Take over an expired lease, or renew our own
	update := db.Model(&ShareLock{}).
		Where("lock_key = ? AND version = ?", key, existing.Version).
		Updates(map[string]interface{}{
			"locked_by":  owner,
			"locked_at":  now,
			"expires_at": expiresAt,
			"version":    existing.Version + 1,
		})
	if update.Error != nil {
		return false, update.Error
	}
	return update.RowsAffected > 0, nil
}

// Release releases a lock held by owner
func (l *Locker) Release(ctx context.Context, key, owner string) error {
	return l.db.WithContext(ctx).
		Where("lock_key = ? AND locked_by = ?", key, owner).
		Delete(&ShareLock{}).Error
}

// IsLocked reports whether key holds an unexpired lease and who owns it
func (l *Locker) IsLocked(ctx context.Context, key string) (bool, string, error) {
	var lock ShareLock
	err := l.db.WithContext(ctx).Where("lock_key = ?", key).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	if lock.IsExpired() {
		return false, "", nil
	}

	return true, lock.LockedBy, nil
}

// Extend extends the TTL of a lock held by owner
func (l *Locker) Extend(ctx context.Context, key, owner string) error {
	expiresAt := time.Now().Add(l.lockTTL)

	result := l.db.WithContext(ctx).Model(&ShareLock{}).
		Where("lock_key = ? AND locked_by = ?", key, owner).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return &LockError{
			Key:      key,
			LockedBy: owner,
			Message:  "lock not found or owned by different owner",
		}
	}

	return nil
}

// CleanupExpired removes all expired locks
func (l *Locker) CleanupExpired(ctx context.Context) (int64, error) {
	result := l.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&ShareLock{})
	return result.RowsAffected, result.Error
}

// WithLock runs fn while holding the lock on key under a fresh owner id.
// Acquisition is retried with backoff while another owner holds the lease.
func (l *Locker) WithLock(ctx context.Context, key string, fn func() error) error {
	owner := uuid.NewString()

	delay := RetryDelay
	acquired := false
	for attempt := 0; attempt < l.retries; attempt++ {
		ok, err := l.Acquire(ctx, key, owner)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			acquired = true
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	if !acquired {
		_, holder, _ := l.IsLocked(ctx, key)
		return &LockError{
			Key:      key,
			LockedBy: holder,
			Message:  fmt.Sprintf("failed to acquire lock %s", key),
		}
	}

	defer l.Release(context.WithoutCancel(ctx), key, owner) //nolint:errcheck

	return fn()
}

// UpdateWithVersion performs an optimistic locking update of the row with
// the given id. Returns ConflictError if the stored version moved on.
func UpdateWithVersion(db *gorm.DB, table string, id uint, currentVersion int64, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")

	result := db.Table(table).
		Where("id = ? AND version = ?", id, currentVersion).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{
				Table:           table,
				ID:              id,
				ExpectedVersion: currentVersion,
			}
		}
		return fmt.Errorf("%s %d: %w", table, id, gorm.ErrRecordNotFound)
	}

	return nil
}

// RetryWithBackoff retries fn with exponential backoff while it fails with
// a ConflictError
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

package repositories

import (
	"context"
	"errors"
	"testlab/internal/database"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/services"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	USER_PROFILE_CACHE_EXPIRY = 12 * time.Hour
	userProfileCachePrefix    = "userProfileRecord"
	// Readers do not fill a profile key for this long after a write.
	userProfileRewriteWindow = 10 * time.Second
)

// UserRepository owns the profile and role tables. Roles are always read
// from the database so that authorization never trusts a cached value.
type UserRepository interface {
	GetProfile(ctx context.Context, principal string) (UserProfile, bool, error)
	SaveProfile(ctx context.Context, profile *UserProfile) error
	EvictProfile(ctx context.Context, principal string)
	GetRole(ctx context.Context, principal string) (Role, bool, error)
	SetRole(ctx context.Context, principal string, role Role, assignedBy string) error
	SetRoleIfAbsent(ctx context.Context, principal string, role Role, assignedBy string) error
	ListRoles(ctx context.Context) ([]UserRole, error)
}

type userRepository struct {
	db    database.DB
	log   logger.Logger
	cache recordCache[UserProfile]
}

func NewUser(db database.DB) UserRepository {
	return &userRepository{
		db:    db,
		log:   logger.New("userRepository"),
		cache: newRecordCache[UserProfile](db.Cache.Users, userProfileCachePrefix, USER_PROFILE_CACHE_EXPIRY),
	}
}

func (r *userRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

// GetProfile bypasses the cache inside a transaction so the caller sees its
// own uncommitted writes.
func (r *userRepository) GetProfile(ctx context.Context, principal string) (UserProfile, bool, error) {
	log := r.log.Function("GetProfile")
	_, inTx := services.GetTransaction(ctx)

	if !inTx {
		entry, found, err := r.cache.Get(ctx, principal)
		if err != nil {
			log.Warn("failed to read profile from cache", "principal", principal, "error", err)
		}
		if found && !entry.Tombstone {
			entry.Record.Principal = principal
			return entry.Record, true, nil
		}
	}

	var profile UserProfile
	err := r.getDB(ctx).Where("principal = ?", principal).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserProfile{}, false, nil
	}
	if err != nil {
		return UserProfile{}, false, log.Err("failed to get profile", err, "principal", principal)
	}

	if !inTx {
		if err := r.cache.Fill(ctx, principal, profile); err != nil {
			log.Warn("failed to add profile to cache", "principal", principal, "error", err)
		}
	}

	return profile, true, nil
}

// SaveProfile evicts the cached profile itself only outside a transaction.
// Inside one the caller must call EvictProfile after commit.
func (r *userRepository) SaveProfile(ctx context.Context, profile *UserProfile) error {
	log := r.log.Function("SaveProfile")

	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return log.Err("failed to save profile", err, "principal", profile.Principal)
	}

	if _, inTx := services.GetTransaction(ctx); !inTx {
		r.EvictProfile(ctx, profile.Principal)
	}

	return nil
}

// EvictProfile tombstones the cached profile for a short window. A read that
// loaded the old row before the write cannot fill the key while the
// tombstone is in place.
func (r *userRepository) EvictProfile(ctx context.Context, principal string) {
	if err := r.cache.Tombstone(ctx, principal, userProfileRewriteWindow); err != nil {
		r.log.Function("EvictProfile").Warn("failed to tombstone profile in cache", "principal", principal, "error", err)
	}
}

func (r *userRepository) GetRole(ctx context.Context, principal string) (Role, bool, error) {
	var userRole UserRole
	err := r.getDB(ctx).Where("principal = ?", principal).Take(&userRole).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.log.Function("GetRole").Err("failed to get role", err, "principal", principal)
	}
	return userRole.Role, true, nil
}

func (r *userRepository) SetRole(ctx context.Context, principal string, role Role, assignedBy string) error {
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "assigned_by", "updated_at"}),
	}).Create(&UserRole{Principal: principal, Role: role, AssignedBy: assignedBy}).Error
	if err != nil {
		return r.log.Function("SetRole").Err("failed to set role", err, "principal", principal, "role", role)
	}
	return nil
}

// SetRoleIfAbsent leaves an existing role untouched.
func (r *userRepository) SetRoleIfAbsent(ctx context.Context, principal string, role Role, assignedBy string) error {
	err := r.getDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&UserRole{Principal: principal, Role: role, AssignedBy: assignedBy}).Error
	if err != nil {
		return r.log.Function("SetRoleIfAbsent").Err("failed to set role", err, "principal", principal, "role", role)
	}
	return nil
}

func (r *userRepository) ListRoles(ctx context.Context) ([]UserRole, error) {
	var roles []UserRole
	if err := r.getDB(ctx).Order("principal ASC").Find(&roles).Error; err != nil {
		return nil, r.log.Function("ListRoles").Err("failed to list roles", err)
	}
	return roles, nil
}

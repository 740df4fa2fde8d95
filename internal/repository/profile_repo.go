package repository

import (
	"context"
	"errors"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository profile data access interface
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error)
	FindByUsername(ctx context.Context, username string) (*domain.Profile, error)
	FindByPIN(ctx context.Context, pin string, excludeIDs []string) (*domain.Profile, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	ExistsByPIN(ctx context.Context, pin string) (bool, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	ListProfileIDs(ctx context.Context) ([]string, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Nuke(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("username ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *profileRepository) FindByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByPIN returns the profile with an exact PIN, skipping excludeIDs
func (r *profileRepository) FindByPIN(ctx context.Context, pin string, excludeIDs []string) (*domain.Profile, error) {
	var p domain.Profile
	q := r.db.WithContext(ctx).Where("pin = ?", pin)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if err := q.Limit(1).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("username = ?", username)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) ExistsByPIN(ctx context.Context, pin string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("pin = ?", pin).Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	err := r.db.WithContext(ctx).Order("username ASC").Find(&profiles).Error
	return profiles, err
}

// ListProfileIDs returns every profile id (reverse public id scan)
func (r *profileRepository) ListProfileIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).Pluck("id", &ids).Error
	return ids, err
}

// UpdateFields updates the given columns; gorm.ErrRecordNotFound if no row matched
func (r *profileRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Updates with identical values reports 0 rows on MySQL; confirm existence
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// Nuke soft-deletes every message of the user in both directions and blocks the profile
func (r *profileRepository) Nuke(ctx context.Context, id string) (int64, error) {
	var wiped int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Message{}).
			Where("sender_id = ? OR receiver_id = ?", id, id).
			Updates(map[string]interface{}{
				"is_deleted":  true,
				"content":     domain.AutodestructContent,
				"image_url":   nil,
				"sticker_url": nil,
				"audio_url":   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		wiped = res.RowsAffected

		res = tx.Model(&domain.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
			"pass_blocked": true,
			"display_name": domain.BlockedDisplayName,
			"avatar_url":   nil,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wiped, err
}

// Delete removes a profile with its contact edges and messages
func (r *profileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? OR contact_id = ?", id, id).Delete(&domain.Contact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Profile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsNotFound reports whether err is a missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

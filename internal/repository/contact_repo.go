package repository

import (
	"context"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactRepository contact edge data access interface
type ContactRepository interface {
	FindBetween(ctx context.Context, a, b string) ([]*domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) error
	Delete(ctx context.Context, userID, contactID string) (int64, error)
	ListContactIDs(ctx context.Context, userID string, status domain.ContactStatus) ([]string, error)
	ListLinkedIDs(ctx context.Context, userID string) ([]string, error)
	ListPending(ctx context.Context, userID string) ([]*domain.Contact, error)
	Accept(ctx context.Context, userID, requesterID string) error
	Reject(ctx context.Context, userID, requesterID string) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// FindBetween returns the edges a→b and b→a that exist
func (r *contactRepository) FindBetween(ctx context.Context, a, b string) ([]*domain.Contact, error) {
	var edges []*domain.Contact
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND contact_id = ?) OR (user_id = ? AND contact_id = ?)", a, b, b, a).
		Find(&edges).Error
	return edges, err
}

func (r *contactRepository) Create(ctx context.Context, c *domain.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contactRepository) Delete(ctx context.Context, userID, contactID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND contact_id = ?", userID, contactID).
		Delete(&domain.Contact{})
	return result.RowsAffected, result.Error
}

// ListContactIDs returns contact ids of userID's outgoing edges with status
func (r *contactRepository) ListContactIDs(ctx context.Context, userID string, status domain.ContactStatus) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("user_id = ? AND status = ?", userID, status).
		Pluck("contact_id", &ids).Error
	return ids, err
}

// ListLinkedIDs returns every user with an edge to or from userID, any status
func (r *contactRepository) ListLinkedIDs(ctx context.Context, userID string) ([]string, error) {
	var out, in []string
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("user_id = ?", userID).Pluck("contact_id", &out).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("contact_id = ?", userID).Pluck("user_id", &in).Error; err != nil {
		return nil, err
	}
	return append(out, in...), nil
}

// ListPending returns incoming pending edges, newest first
func (r *contactRepository) ListPending(ctx context.Context, userID string) ([]*domain.Contact, error) {
	var edges []*domain.Contact
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND status = ?", userID, domain.ContactPending).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, err
}

// Accept turns requester → user into an accepted pair in one transaction.
// Returns gorm.ErrRecordNotFound when there is no pending request.
func (r *contactRepository) Accept(ctx context.Context, userID, requesterID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Contact{}).
			Where("user_id = ? AND contact_id = ? AND status = ?", requesterID, userID, domain.ContactPending).
			Update("status", domain.ContactAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		reverse := &domain.Contact{
			UserID:    userID,
			ContactID: requesterID,
			Status:    domain.ContactAccepted,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "contact_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status"}),
		}).Create(reverse).Error
	})
}

// Reject deletes a pending request requester → user
func (r *contactRepository) Reject(ctx context.Context, userID, requesterID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND contact_id = ? AND status = ?", requesterID, userID, domain.ContactPending).
		Delete(&domain.Contact{})
	return result.RowsAffected, result.Error
}

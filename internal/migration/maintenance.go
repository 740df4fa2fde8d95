package migration

import (
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"gorm.io/gorm"
)

// Report is the result of Verify
type Report struct {
	Profiles int64
	Messages int64
	Contacts int64

	// messages whose sender or receiver no longer exists
	OrphanMessages int64
	// accepted edges without the accepted reverse edge
	OneSidedContacts int64
	// replies pointing at a missing message
	DanglingReplies int64
	// messages past expires_at still stored
	ExpiredMessages int64
}

// Healthy reports whether no integrity check found anything
func (r *Report) Healthy() bool {
	return r.OrphanMessages == 0 && r.OneSidedContacts == 0 && r.DanglingReplies == 0
}

// Verify counts rows and checks cross-table integrity
func Verify(db *gorm.DB, now time.Time) (*Report, error) {
	var r Report

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&domain.Profile{}, &r.Profiles},
		{&domain.Message{}, &r.Messages},
		{&domain.Contact{}, &r.Contacts},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	checks := []struct {
		sql  string
		args []interface{}
		dest *int64
	}{
		{
			`SELECT COUNT(*) FROM messages m
			 WHERE NOT EXISTS (SELECT 1 FROM profiles p WHERE p.id = m.sender_id)
			    OR NOT EXISTS (SELECT 1 FROM profiles p WHERE p.id = m.receiver_id)`,
			nil, &r.OrphanMessages,
		},
		{
			`SELECT COUNT(*) FROM contacts c
			 WHERE c.status = ?
			   AND NOT EXISTS (SELECT 1 FROM contacts r
			                   WHERE r.user_id = c.contact_id AND r.contact_id = c.user_id AND r.status = ?)`,
			[]interface{}{domain.ContactAccepted, domain.ContactAccepted}, &r.OneSidedContacts,
		},
		{
			`SELECT COUNT(*) FROM messages m
			 WHERE m.reply_to_id IS NOT NULL
			   AND NOT EXISTS (SELECT 1 FROM messages t WHERE t.id = m.reply_to_id)`,
			nil, &r.DanglingReplies,
		},
		{
			`SELECT COUNT(*) FROM messages WHERE expires_at IS NOT NULL AND expires_at <= ?`,
			[]interface{}{now}, &r.ExpiredMessages,
		},
	}
	for _, c := range checks {
		if err := db.Raw(c.sql, c.args...).Scan(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// PruneExpired hard-deletes messages past expires_at.
// Reads already hide them; this only reclaims space.
func PruneExpired(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}

// RepairContacts completes one-sided accepted edges left by an interrupted accept
func RepairContacts(db *gorm.DB) (int64, error) {
	var edges []domain.Contact
	err := db.Raw(`SELECT c.* FROM contacts c
		WHERE c.status = ?
		  AND NOT EXISTS (SELECT 1 FROM contacts r
		                  WHERE r.user_id = c.contact_id AND r.contact_id = c.user_id AND r.status = ?)`,
		domain.ContactAccepted, domain.ContactAccepted).Scan(&edges).Error
	if err != nil {
		return 0, err
	}

	var fixed int64
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, e := range edges {
			reverse := domain.Contact{UserID: e.ContactID, ContactID: e.UserID, Status: domain.ContactAccepted}
			res := tx.Where(domain.Contact{UserID: e.ContactID, ContactID: e.UserID}).
				Assign(domain.Contact{Status: domain.ContactAccepted}).
				FirstOrCreate(&reverse)
			if res.Error != nil {
				return res.Error
			}
			fixed++
		}
		return nil
	})
	return fixed, err
}

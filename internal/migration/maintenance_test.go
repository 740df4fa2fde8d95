package migration

import (
	"testing"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Run(db))
	return db
}

func TestSeedAdminOnlyOnEmptyTable(t *testing.T) {
	db := setupDB(t)

	created, err := SeedAdmin(db, "", "pw")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = SeedAdmin(db, "root", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	var admin domain.Profile
	require.NoError(t, db.Where("username = ?", "root").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.Len(t, admin.PIN, domain.PINLength)

	created, err = SeedAdmin(db, "root2", "pw")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestVerifyAndRepair(t *testing.T) {
	db := setupDB(t)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&domain.Profile{ID: id, Username: id, PIN: "PIN00" + id}).Error)
	}
	text := "x"
	past := now.Add(-time.Hour)
	missing := int64(999)
	require.NoError(t, db.Create(&[]domain.Message{
		{SenderID: "a", ReceiverID: "b", Content: &text, MessageType: domain.MessageTypeText, CreatedAt: now},
		{SenderID: "a", ReceiverID: "ghost", Content: &text, MessageType: domain.MessageTypeText, CreatedAt: now},
		{SenderID: "b", ReceiverID: "a", Content: &text, MessageType: domain.MessageTypeText, CreatedAt: now, ReplyToID: &missing},
		{SenderID: "b", ReceiverID: "c", Content: &text, MessageType: domain.MessageTypeText, CreatedAt: past, ExpiresAt: &past},
	}).Error)
	require.NoError(t, db.Create(&[]domain.Contact{
		{UserID: "a", ContactID: "b", Status: domain.ContactAccepted},
		{UserID: "b", ContactID: "a", Status: domain.ContactAccepted},
		{UserID: "a", ContactID: "c", Status: domain.ContactAccepted},
		{UserID: "c", ContactID: "a", Status: domain.ContactPending},
		{UserID: "b", ContactID: "c", Status: domain.ContactPending},
	}).Error)

	r, err := Verify(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.Profiles)
	assert.Equal(t, int64(4), r.Messages)
	assert.Equal(t, int64(5), r.Contacts)
	assert.Equal(t, int64(1), r.OrphanMessages)
	assert.Equal(t, int64(1), r.OneSidedContacts)
	assert.Equal(t, int64(1), r.DanglingReplies)
	assert.Equal(t, int64(1), r.ExpiredMessages)
	assert.False(t, r.Healthy())

	fixed, err := RepairContacts(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)

	var reverse domain.Contact
	require.NoError(t, db.Where("user_id = ? AND contact_id = ?", "c", "a").First(&reverse).Error)
	assert.Equal(t, domain.ContactAccepted, reverse.Status)

	pruned, err := PruneExpired(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	r, err = Verify(db, now)
	require.NoError(t, err)
	assert.Zero(t, r.OneSidedContacts)
	assert.Zero(t, r.ExpiredMessages)
}

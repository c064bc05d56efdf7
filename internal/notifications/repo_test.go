package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE notifications (
			id           text PRIMARY KEY,
			recipient_id text NOT NULL,
			role         text NOT NULL,
			type         text NOT NULL,
			title        text NOT NULL,
			message      text NOT NULL,
			order_id     text,
			read_at      datetime,
			created_at   datetime NOT NULL
		)`).Error)

	return db
}

func seedNotification(t *testing.T, db *gorm.DB, recipientID uuid.UUID, createdAt time.Time) models.Notification {
	t.Helper()

	row := models.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Role:        enums.ActorRoleBuyer,
		Type:        enums.NotificationTypeOrder,
		Title:       "Order placed",
		Message:     "Your order has been placed.",
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestRepositoryListPaginatesByCursor(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	base := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedNotification(t, db, recipient, base.Add(time.Duration(i)*time.Minute))
	}
	seedNotification(t, db, uuid.New(), base)

	first, cursor, err := repo.List(ctx, listNotificationsParams{RecipientID: recipient, Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, cursor)
	require.True(t, first[0].CreatedAt.After(first[2].CreatedAt))

	rest, next, err := repo.List(ctx, listNotificationsParams{RecipientID: recipient, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Nil(t, next)
}

func TestRepositoryMarkReadScopesRecipient(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	row := seedNotification(t, db, recipient, time.Now().UTC())

	mark, err := repo.MarkRead(ctx, uuid.New(), row.ID, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, mark.Found)

	mark, err = repo.MarkRead(ctx, recipient, row.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, recipient, row.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, mark.Found)
	require.False(t, mark.Updated)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	seedNotification(t, db, recipient, time.Now().UTC())
	seedNotification(t, db, recipient, time.Now().UTC())
	seedNotification(t, db, uuid.New(), time.Now().UTC())

	count, err := repo.MarkAllRead(ctx, recipient, time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	unread, _, err := repo.List(ctx, listNotificationsParams{RecipientID: recipient, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread)
}

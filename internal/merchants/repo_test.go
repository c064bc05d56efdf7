package merchants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/types"
)

func setupMerchantsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	configs := `
CREATE TABLE IF NOT EXISTS merchant_configs (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL UNIQUE,
  store_name TEXT NOT NULL,
  scheduling_enabled INTEGER NOT NULL DEFAULT 0,
  auto_accept_enabled INTEGER NOT NULL DEFAULT 0,
  delivery_type TEXT NOT NULL DEFAULT 'none',
  delivery_fee TEXT NOT NULL DEFAULT '0',
  preparation_time_minutes INTEGER NOT NULL DEFAULT 0,
  delivery_time_minutes INTEGER NOT NULL DEFAULT 0,
  business_hours TEXT,
  low_stock_alerts_enabled INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(configs).Error)
	return db
}

func seedConfig(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()

	merchantID := uuid.New()
	err := db.Exec(`
		INSERT INTO merchant_configs (id, merchant_id, store_name)
		VALUES (?, ?, ?)
	`, uuid.New(), merchantID, "Corner Roasters").Error
	require.NoError(t, err)
	return merchantID
}

func TestSetBusinessHoursRoundTrip(t *testing.T) {
	db := setupMerchantsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	merchantID := seedConfig(t, db)

	hours, err := svc.SetBusinessHours(context.Background(), merchantID, HoursInput{
		Enabled: true,
		Days: []DayInput{
			{
				Weekday: time.Wednesday,
				Enabled: true,
				Shifts:  []ShiftInput{{Open: "8:00 AM", Close: "4:00 PM"}},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, hours.Enabled)

	cfg, err := svc.GetConfig(context.Background(), merchantID)
	require.NoError(t, err)

	wednesday, ok := cfg.BusinessHours.Day(time.Wednesday)
	require.True(t, ok)
	require.Len(t, wednesday.Shifts, 1)
	assert.Equal(t, types.Shift{OpenMinute: 8 * 60, CloseMinute: 16 * 60}, wednesday.Shifts[0])

	open := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) // a Wednesday
	closed := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	assert.True(t, cfg.BusinessHours.IsOpenAt(open))
	assert.False(t, cfg.BusinessHours.IsOpenAt(closed))
}

func TestSetBusinessHoursUnknownMerchant(t *testing.T) {
	db := setupMerchantsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.SetBusinessHours(context.Background(), uuid.New(), HoursInput{Enabled: true})
	require.Error(t, err)
}

func TestGetConfigNotFound(t *testing.T) {
	db := setupMerchantsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.GetConfig(context.Background(), uuid.New())
	require.Error(t, err)
}

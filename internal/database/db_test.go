package database

import (
	"errors"
	"fmt"
	"testing"

	"cafeassist/internal/config"
	"cafeassist/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "nosuchdb", DSN: "x"})
	assert.Error(t, err)
}

func TestWithTransaction_Commits(t *testing.T) {
	db := newTestDB(t)
	err := WithTransaction(db, func(tx *gorm.DB) error {
		return tx.Create(&models.Category{Name: "Desserts"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db, &models.Category{}))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")
	err := WithTransaction(db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Category{Name: "Desserts"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db, &models.Category{}))
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	assert.Panics(t, func() {
		_ = WithTransaction(db, func(tx *gorm.DB) error {
			tx.Create(&models.Category{Name: "Desserts"})
			panic("kitchen on fire")
		})
	})
	assert.Equal(t, 0, count(t, db, &models.Category{}))
}

func TestSeed_Idempotent(t *testing.T) {
	db := newTestDB(t)

	created, err := Seed(db)
	require.NoError(t, err)
	assert.Equal(t, 24, created)

	created, err = Seed(db)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	assert.Equal(t, 3, count(t, db, &models.Category{}))
	assert.Equal(t, 24, count(t, db, &models.Item{}))

	var samosa models.Item
	require.NoError(t, db.Where("name = ?", "Samosa").First(&samosa).Error)
	assert.True(t, samosa.Price.Equal(decimal.NewFromInt(30)))
	assert.True(t, samosa.IsActive)
}

func TestSeed_RejectsInvalidItems(t *testing.T) {
	db := newTestDB(t)
	menu := []seedCategory{{
		name: "Desserts", order: 4,
		items: []seedItem{
			{"Gulab Jamun", 60, "Milk dumplings in syrup"},
			{"Free Water", 0, ""},
		},
	}}

	created, err := seedMenu(db, menu)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Free Water")
	assert.Equal(t, 0, created)
	assert.Equal(t, 0, count(t, db, &models.Category{}))
	assert.Equal(t, 0, count(t, db, &models.Item{}))
}

func TestValidateItem(t *testing.T) {
	assert.Error(t, models.ValidateItem(&models.Item{Price: decimal.NewFromInt(10)}))
	assert.Error(t, models.ValidateItem(&models.Item{Name: "Free Water"}))
	assert.NoError(t, models.ValidateItem(&models.Item{Name: "Lassi", Price: decimal.NewFromInt(70)}))
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.User{Username: "asha"}).Error)
	err := db.Create(&models.User{Username: "asha"}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	assert.True(t, isUniqueViolation(fmt.Errorf("create: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

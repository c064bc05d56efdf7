package models

// OrderCounter is a single-row table backing monotonic order numbers.
// An UPDATE inside the checkout transaction serializes concurrent
// sessions on both Postgres and SQLite.
type OrderCounter struct {
	ID         int   `gorm:"column:id;primaryKey"`
	NextNumber int64 `gorm:"column:next_number;not null"`
}

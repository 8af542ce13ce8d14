// Package repository is the only place that talks SQL. Every repository wraps
// a *gorm.DB; analytics queries are built with squirrel and executed through
// gorm so they share the same pool and context.
package repository

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would violate a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
)

// psql renders squirrel builders with "?" placeholders, gorm rewrites them for
// the postgres driver.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Window is the half open interval [From, To). A zero From means unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// Bounded reports whether the window has a lower bound.
func (w Window) Bounded() bool {
	return !w.From.IsZero()
}

// Days returns the window ending at now and spanning days days.
func Days(now time.Time, days int) Window {
	return Window{From: now.AddDate(0, 0, -days), To: now}
}

// Previous returns the window of equal length right before w.
func (w Window) Previous() Window {
	return Window{From: w.From.Add(-w.To.Sub(w.From)), To: w.From}
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// raw executes a squirrel builder and scans the rows into dest.
func raw(db *gorm.DB, b sq.Sqlizer, dest interface{}) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build query")
	}
	return db.Raw(query, args...).Scan(dest).Error
}

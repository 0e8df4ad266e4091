// Package store holds the gorm-backed persistence for listings, inquiries,
// analytics events and admin sessions.
package store

import (
	"context"
	"errors"

	"realty_backend/pkg/apperror"
	"realty_backend/pkg/query"

	"gorm.io/gorm"
)

// Stores bundles every store over one connection pool.
type Stores struct {
	Properties *GormPropertyStore
	Contacts   *ContactStore
	Analytics  *AnalyticsStore
	Sessions   *SessionStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Properties: NewPropertyStore(db),
		Contacts:   NewContactStore(db),
		Analytics:  NewAnalyticsStore(db),
		Sessions:   NewSessionStore(db),
	}
}

// Built queries use numbered placeholders, so they run on the pooled
// *sql.DB and gorm is only used to map rows onto models.

func countRows(ctx context.Context, db *gorm.DB, q query.Query, total *int64) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.QueryRowContext(ctx, q.CountSQL, q.CountArgs...).Scan(total)
}

func scanRows[T any](ctx context.Context, db *gorm.DB, q query.Query, out *[]T) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	rows, err := sqlDB.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item T
		if err := db.ScanRows(rows, &item); err != nil {
			return err
		}
		*out = append(*out, item)
	}
	return rows.Err()
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what)
	}
	return apperror.Internal("Failed to load "+what, err)
}

// Package db carries a gorm transaction through context so a use case can
// span several repository calls with one commit.
package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx runs fn inside a transaction. Repository calls made with the context
// fn receives join that transaction; fn returning an error rolls it back.
func WithTx(ctx context.Context, conn *gorm.DB, fn func(ctx context.Context) error) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// FromContext returns the transaction stored in ctx, or fallback bound to ctx
// when no transaction is open.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

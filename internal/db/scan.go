package db

import (
	"database/sql"

	"github.com/tordrt/dbscaffold/internal/schema"
)

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func valueGenerated(v schema.ValueGenerated) *schema.ValueGenerated {
	return &v
}

package repositories

import (
	"database/sql"
	"fmt"
)

// requireAffected returns an error wrapping notFound when result touched no rows.
func requireAffected(result sql.Result, notFound error, key any) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %v", notFound, key)
	}
	return nil
}

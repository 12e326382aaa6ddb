package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound converts sql.ErrNoRows into a nil result without error, for
// single-row reads where absence is a valid state (an unset quota period).
//
//	var period string
//	err := db.GetContext(ctx, &period, `SELECT period FROM design_quota_period WHERE id = 1`)
//	found, err := HandleNotFound(&period, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

package repository

import "errors"

var (
	ErrFailedToQuery  = errors.New("failed to query processed emails")
	ErrFailedToInsert = errors.New("failed to insert processed emails")
)

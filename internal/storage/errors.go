package storage

import "errors"

var (
	// ErrUsageRecordNotFound is returned when no usage record exists for an (ip, date) pair
	ErrUsageRecordNotFound = errors.New("usage record not found")

	// ErrUnsupportedDriver is returned for SQL drivers the storage layer does not know
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

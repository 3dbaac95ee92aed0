package storage

import "errors"

// Sentinel errors for the booking repository.
var (
	// ErrBuildQuery indicates the SQL query could not be constructed.
	ErrBuildQuery = errors.New("storage: failed to build query")

	// ErrExecQuery indicates the SQL query failed to execute.
	ErrExecQuery = errors.New("storage: failed to execute query")

	// ErrScanRow indicates a result row could not be decoded.
	ErrScanRow = errors.New("storage: failed to scan row")
)

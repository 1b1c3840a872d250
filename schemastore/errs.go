package schemastore

import "errors"

var (
	ErrNotFound = errors.New("schema not found")
	ErrFetch    = errors.New("schema fetch failed")
	// ErrOffline is returned for remote schemas that are neither cached nor
	// fetchable because the store is offline.
	ErrOffline = errors.New("schema not available offline")
)

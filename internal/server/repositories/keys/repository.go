// Package keys persists sealed keychain entries. Values handed to a
// Repository are already encrypted; backends never see raw key material.
package keys

import "context"

type Repository interface {
	// Save stores sealed under id, replacing any previous value.
	Save(ctx context.Context, id string, sealed []byte) error
	// SaveAll replaces the whole stored set with entries.
	SaveAll(ctx context.Context, entries map[string][]byte) error
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) (map[string][]byte, error)
}

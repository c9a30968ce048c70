package model

import "time"

// Snapshot is the progressively published vault list of the latest full
// load. Batches counts the batches appended since the last Replace.
type Snapshot struct {
	Vaults    []VaultRecord `json:"vaults"`
	Batches   int           `json:"batches"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

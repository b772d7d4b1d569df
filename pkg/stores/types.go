package stores

import (
	"time"
)

// LoadStatus represents the outcome of a recorded load.
type LoadStatus string

const (
	// LoadStatusSuccess means the load produced an asset.
	LoadStatusSuccess LoadStatus = "success"

	// LoadStatusFailed means the load was rejected or failed to decode.
	LoadStatusFailed LoadStatus = "failed"
)

// LoadRecord is one entry in the load history.
type LoadRecord struct {
	// ID is the asset ID the loader assigned to the load.
	ID string `json:"id"`

	// FileName is the name the file was loaded under.
	FileName string `json:"file_name"`

	// FileSizeBytes is the size of the source file.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Format is the detected format variant.
	Format string `json:"format"`

	// Status is the load outcome.
	Status LoadStatus `json:"status"`

	// Vertices is the decoded vertex count. Zero for failed loads.
	Vertices int `json:"vertices"`

	// Triangles is the decoded triangle count. Zero for failed loads.
	Triangles int `json:"triangles"`

	// DurationMS is the end-to-end load duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Error is the failure message for failed loads.
	Error *string `json:"error,omitempty"`

	// LoadedAt is when the load finished.
	LoadedAt time.Time `json:"loaded_at"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// Preference is one persisted viewer preference.
type Preference struct {
	// Key is the preference name.
	Key string `json:"key"`

	// Value is the preference value.
	Value string `json:"value"`

	// UpdatedAt is when the preference was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

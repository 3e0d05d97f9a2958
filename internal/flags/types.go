package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

// Flag is one runtime toggle. Missing flags default to enabled, so an empty
// store runs the full pipeline.
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Toggles consulted by the pipeline.
const (
	KeyDexEnabled         = "domain.dex.enabled"
	KeyLendingEnabled     = "domain.lending.enabled"
	KeyNFTEnabled         = "domain.nft.enabled"
	KeyDerivativesEnabled = "domain.derivatives.enabled"
	KeyCleanupEnabled     = "cleanup.enabled"
)

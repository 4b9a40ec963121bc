package ports

import (
	"context"
	"time"
)

// Fingerprint is one archived sighting of previously published media.
type Fingerprint struct {
	ID           string
	PHash        uint64
	SourceURL    string
	SourceDomain string
	FirstSeenAt  time.Time
}

// FingerprintRepository stores perceptual hashes of archived media.
type FingerprintRepository interface {
	Insert(ctx context.Context, fp Fingerprint) (id string, err error)
	// Near returns archived fingerprints within maxDistance bits of hash.
	Near(ctx context.Context, hash uint64, maxDistance int) ([]Fingerprint, error)
}

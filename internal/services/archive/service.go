// Package archive is the curated fingerprint archive of previously published
// media. Verification only reads from it; new sightings are registered
// through the archive endpoint or the CLI.
package archive

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/go-playground/validator/v10"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/publicsuffix"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/ports"
)

// DefaultMaxDistance is the Hamming distance under which two pHashes are
// treated as the same picture.
const DefaultMaxDistance = 6

var ErrInvalidSource = errors.New("invalid archive source")

var validate = validator.New()

type registration struct {
	SourceURL   string    `validate:"required,http_url,max=2048"`
	FirstSeenAt time.Time `validate:"required"`
}

type Service struct {
	fingerprints ports.FingerprintRepository
	maxDistance  int
	now          func() time.Time
}

func New(fingerprints ports.FingerprintRepository, maxDistance int) *Service {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &Service{fingerprints: fingerprints, maxDistance: maxDistance, now: time.Now}
}

// Lookup reports archived sightings that look like media.
func (s *Service) Lookup(ctx context.Context, media domain.MediaReference) (ports.HistoryRecord, error) {
	hash, err := HashFile(media.Path)
	if err != nil {
		return ports.HistoryRecord{}, err
	}
	matches, err := s.fingerprints.Near(ctx, hash, s.maxDistance)
	if err != nil {
		return ports.HistoryRecord{}, fmt.Errorf("archive lookup: %w", err)
	}

	rec := ports.HistoryRecord{SeenBefore: len(matches) > 0, Matches: len(matches)}
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if rec.FirstSeenAt.IsZero() || m.FirstSeenAt.Before(rec.FirstSeenAt) {
			rec.FirstSeenAt = m.FirstSeenAt
		}
		if m.SourceDomain != "" && !seen[m.SourceDomain] {
			seen[m.SourceDomain] = true
			rec.Sources = append(rec.Sources, m.SourceDomain)
		}
	}
	return rec, nil
}

// Register archives media as published at sourceURL. A zero firstSeenAt
// means now.
func (s *Service) Register(ctx context.Context, media domain.MediaReference, sourceURL string, firstSeenAt time.Time) (string, error) {
	if firstSeenAt.IsZero() {
		firstSeenAt = s.now()
	}
	in := registration{SourceURL: strings.TrimSpace(sourceURL), FirstSeenAt: firstSeenAt}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	u, err := url.Parse(in.SourceURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	hash, err := HashFile(media.Path)
	if err != nil {
		return "", err
	}
	return s.fingerprints.Insert(ctx, ports.Fingerprint{
		PHash:        hash,
		SourceURL:    in.SourceURL,
		SourceDomain: RegistrableDomain(u.Hostname()),
		FirstSeenAt:  in.FirstSeenAt,
	})
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when it has
// none (IP literals, single labels).
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// HashFile decodes the image at path and returns its 64-bit perceptual hash.
func HashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("phash: %w", err)
	}
	return h.GetHash(), nil
}

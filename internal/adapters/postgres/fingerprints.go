package postgres

import (
	"context"
	"strings"

	"pratyaksh/internal/ports"
)

// FingerprintRepository

// Insert stores one archived sighting. The hash is kept as the signed
// two's-complement BIGINT of the 64-bit pHash.
func (db *DB) Insert(ctx context.Context, fp ports.Fingerprint) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO media_fingerprints (phash, source_url, source_domain, first_seen_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id::text
    `, int64(fp.PHash), fp.SourceURL, strings.ToLower(fp.SourceDomain), fp.FirstSeenAt.UTC()).Scan(&id)
	return id, err
}

// Near returns archived fingerprints whose Hamming distance to hash is at most
// maxDistance, closest and oldest first. Requires PostgreSQL 14 for bit_count.
func (db *DB) Near(ctx context.Context, hash uint64, maxDistance int) ([]ports.Fingerprint, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id::text, phash, source_url, source_domain, first_seen_at
        FROM media_fingerprints
        WHERE bit_count((phash # $1)::bit(64)) <= $2
        ORDER BY bit_count((phash # $1)::bit(64)), first_seen_at
    `, int64(hash), maxDistance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.Fingerprint
	for rows.Next() {
		var (
			fp    ports.Fingerprint
			phash int64
		)
		if err := rows.Scan(&fp.ID, &phash, &fp.SourceURL, &fp.SourceDomain, &fp.FirstSeenAt); err != nil {
			return nil, err
		}
		fp.PHash = uint64(phash)
		out = append(out, fp)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/normalizer/internal/models"
)

// FetchPendingAddresses retrieves the address records that still need normalization.
// A record is pending while its normalized_address is NULL; with opts.Reprocess set every
// row is returned. Rows are ordered by id and capped at opts.Limit when it is positive.
// NULL raw_address or postal_code values are read as empty strings.
func (r *Repository) FetchPendingAddresses(
	ctx context.Context,
	opts FetchOptions,
) ([]models.AddressRecord, error) {
	var (
		records []models.AddressRecord
		args    []any
	)

	query := fmt.Sprintf(`
		SELECT id, COALESCE(raw_address, ''), COALESCE(postal_code, '')
		FROM %s`, r.table)
	if !opts.Reprocess {
		query += `
		WHERE normalized_address IS NULL`
	}
	query += `
		ORDER BY id ASC`
	if opts.Limit > 0 {
		query += `
		LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.AddressRecord
		if errScan := rows.Scan(&rec.ID, &rec.RawAddress, &rec.PostalCode); errScan != nil {
			return nil, fmt.Errorf("failed to scan pending address: %w", errScan)
		}
		r.log.DebugContext(ctx, "A pending address record has been received.",
			"id", rec.ID, "address", rec.RawAddress, "postal_code", rec.PostalCode)
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return records, nil
}

// UpdateNormalizedAddress writes the five normalized fields of the record identified by id.
// The statement runs outside any transaction, so it is committed as soon as it returns.
func (r *Repository) UpdateNormalizedAddress(
	ctx context.Context,
	id int64,
	addr models.NormalizedAddress,
) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET
			normalized_address = $1,
			latitude = $2,
			longitude = $3,
			normalized_province = $4,
			normalized_locality = $5
		WHERE
			id = $6;
	`, r.table)

	tag, err := r.db.Exec(ctx, query,
		addr.Address, addr.Latitude, addr.Longitude, addr.Province, addr.Locality, id)
	if err != nil {
		return fmt.Errorf("failed to update normalized address: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.log.WarnContext(ctx, "No row matched the normalized address update", "id", id)
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/normalizer/internal/geocoding"
	"github.com/UnknownOlympus/normalizer/internal/metrics"
	"github.com/UnknownOlympus/normalizer/internal/models"
	"github.com/UnknownOlympus/normalizer/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Options tunes a normalization run.
type Options struct {
	Workers   int  // Workers is the number of records normalized concurrently; values below 1 mean 1.
	Limit     int  // Limit caps the number of records fetched; zero means all.
	Reprocess bool // Reprocess includes records that were already normalized.
	DryRun    bool // DryRun normalizes records without writing the result.
}

// Summary counts the outcome of every record seen by a run.
type Summary struct {
	Total   int // Total is the number of records fetched.
	Updated int // Updated records had their five normalized fields written.
	Empty   int // Empty records got a successful response without candidates.
	Failed  int // Failed records hit a service, transport or decode error.
	Skipped int // Skipped records had no address, or were not written because of a dry run.
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("updated", s.Updated),
		slog.Int("empty", s.Empty),
		slog.Int("failed", s.Failed),
		slog.Int("skipped", s.Skipped),
	)
}

type tally struct {
	updated, empty, failed, skipped atomic.Int64
}

func (t *tally) summary(total int) Summary {
	return Summary{
		Total:   total,
		Updated: int(t.updated.Load()),
		Empty:   int(t.empty.Load()),
		Failed:  int(t.failed.Load()),
		Skipped: int(t.skipped.Load()),
	}
}

// NormalizerService runs the address normalization batch: it fetches pending records,
// asks the geocoding provider for each one and writes the first candidate back.
type NormalizerService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Interface for data repository access
	provider     geocoding.Provider   // Geocoding provider used to normalize addresses
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
	opts         Options
}

// NewNormalizerService creates a new instance of NormalizerService.
func NewNormalizerService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	opts Options,
) *NormalizerService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &NormalizerService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		opts:         opts,
	}
}

// Run performs one normalization pass and returns what happened to each record.
//
// A failing lookup only skips its record. Fetching the records, writing a result, or a
// cancelled context stops the run with an error; rows written before that stay committed.
// With a single worker records are handled one at a time in id order.
func (ns *NormalizerService) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	defer func() {
		ns.metrics.LastRunSeconds.Set(time.Since(started).Seconds())
	}()

	records, err := ns.repo.FetchPendingAddresses(ctx, repository.FetchOptions{
		Limit:     ns.opts.Limit,
		Reprocess: ns.opts.Reprocess,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch pending addresses: %w", err)
	}
	ns.metrics.RecordsFetched.Set(float64(len(records)))

	if len(records) == 0 {
		ns.log.InfoContext(ctx, "No address records to normalize.")
		ns.metrics.LastSuccess.SetToCurrentTime()
		return Summary{}, nil
	}

	ns.log.InfoContext(ctx, "Found address records to normalize.",
		"records", len(records),
		"workers", ns.opts.Workers,
		"dry_run", ns.opts.DryRun,
	)

	var counts tally
	err = ns.processAll(ctx, records, &counts)
	summary := counts.summary(len(records))
	if err != nil {
		ns.log.ErrorContext(ctx, "Normalization run aborted", "error", err, "summary", summary)
		return summary, err
	}

	ns.metrics.LastSuccess.SetToCurrentTime()
	ns.log.InfoContext(ctx, "Normalization run finished", "summary", summary)

	return summary, nil
}

// processAll feeds the records through a pool bounded by opts.Workers.
// The first fatal error cancels the records that have not started yet.
func (ns *NormalizerService) processAll(ctx context.Context, records []models.AddressRecord, counts *tally) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(ns.opts.Workers)

	for _, rec := range records {
		if gctx.Err() != nil {
			break
		}
		rec := rec
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return ns.processRecord(gctx, rec, counts)
		})
	}

	err := grp.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("normalization interrupted: %w", ctxErr)
	}

	return err
}

// processRecord performs the single lookup for a record and at most one update.
// Only a failed write or a cancelled context is returned as an error.
func (ns *NormalizerService) processRecord(ctx context.Context, rec models.AddressRecord, counts *tally) error {
	ns.metrics.ActiveWorkers.Inc()
	defer ns.metrics.ActiveWorkers.Dec()

	ns.log.DebugContext(ctx, "Processing record", "id", rec.ID)

	startTime := time.Now()
	addr, err := ns.provider.Normalize(ctx, rec.Query())
	if !errors.Is(err, geocoding.ErrEmptyQuery) {
		ns.metrics.RequestSeconds.WithLabelValues(ns.providerName).Observe(time.Since(startTime).Seconds())
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	switch {
	case errors.Is(err, geocoding.ErrNoCandidates):
		ns.log.DebugContext(ctx, "No candidates returned, record left unchanged", "id", rec.ID)
		counts.empty.Add(1)
		ns.metrics.RecordsProcessed.WithLabelValues(metrics.StatusEmpty).Inc()
		return nil
	case errors.Is(err, geocoding.ErrEmptyQuery):
		ns.log.WarnContext(ctx, "Provider rejected an empty address, record left unchanged", "id", rec.ID)
		counts.skipped.Add(1)
		ns.metrics.RecordsProcessed.WithLabelValues(metrics.StatusSkipped).Inc()
		return nil
	case err != nil:
		ns.log.ErrorContext(ctx, "Failed to normalize address",
			"id", rec.ID,
			"address", rec.RawAddress,
			"postal_code", rec.PostalCode,
			"error", err,
		)
		counts.failed.Add(1)
		ns.metrics.RecordsProcessed.WithLabelValues(metrics.StatusFailed).Inc()
		ns.metrics.APIErrors.WithLabelValues(ns.providerName).Inc()
		return nil
	}

	if ns.opts.DryRun {
		ns.log.InfoContext(ctx, "Dry run, normalized address not written",
			"id", rec.ID,
			"normalized_address", addr.Address,
			"latitude", addr.Latitude,
			"longitude", addr.Longitude,
			"province", addr.Province,
			"locality", addr.Locality,
		)
		counts.skipped.Add(1)
		ns.metrics.RecordsProcessed.WithLabelValues(metrics.StatusSkipped).Inc()
		return nil
	}

	if err = ns.repo.UpdateNormalizedAddress(ctx, rec.ID, *addr); err != nil {
		return fmt.Errorf("failed to write normalized address for record %d: %w", rec.ID, err)
	}

	counts.updated.Add(1)
	ns.metrics.RecordsProcessed.WithLabelValues(metrics.StatusUpdated).Inc()
	ns.log.DebugContext(ctx, "Record normalized", "id", rec.ID, "normalized_address", addr.Address)

	return nil
}

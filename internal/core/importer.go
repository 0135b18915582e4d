package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

// Importer drives the import pipeline: chunking, all-or-nothing batch
// transactions, per-record fallback, result accounting, and the overall
// success check.
type Importer struct {
	DB       ports.DatabasePort
	Resolver NavigationResolver
	Config   types.ImportConfig
	Clock    func() time.Time

	compiler UpsertCompiler
}

func NewImporter(db ports.DatabasePort, resolver NavigationResolver, cfg types.ImportConfig) Importer {
	cfg = cfg.Normalize()
	return Importer{
		DB:       db,
		Resolver: resolver,
		Config:   cfg,
		Clock:    time.Now,
		compiler: NewUpsertCompiler(cfg.MainTable),
	}
}

// ImportRaw parses raw JSON through the format registry and imports the
// resulting collection. Malformed input is a hard failure; a valid JSON
// object that no registered format recognizes is a silent skip, reported
// as zero records and no error.
func (i Importer) ImportRaw(ctx context.Context, raw []byte, registry ports.FormatRegistry, editor *types.Editor) (*types.ImportStats, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return &types.ImportStats{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("input is not a JSON object").
			WithCause(err)
	}

	format, ok := registry.Detect(root)
	if !ok {
		log.Ctx(ctx).Info().Msg("no registered format matches input, skipping")
		return &types.ImportStats{}, nil
	}

	records, err := format.Parse(root)
	if err != nil {
		return &types.ImportStats{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse " + format.Name() + " collection").
			WithCause(err)
	}
	return i.ImportCollection(ctx, records, editor)
}

// ImportCollection imports validated records in chunks of the configured
// batch size. Each chunk is first attempted as a single transaction; when
// that aborts with nothing committed, every record of the chunk is retried
// in its own transaction. Chunks run strictly sequentially.
//
// Already-committed chunks stay persisted even when the aggregate failure
// threshold is breached afterwards; the returned stats are valid either
// way.
func (i Importer) ImportCollection(ctx context.Context, records []types.DatasetRecord, editor *types.Editor) (*types.ImportStats, error) {
	assert.NotEmpty(ctx, i.Config.MainTable, "main table must be configured")

	stats := &types.ImportStats{}
	batchSize := i.Config.BatchSize

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]

		log.Ctx(ctx).Info().
			Int("batch", start/batchSize+1).
			Int("from", start+1).Int("to", end).Int("total", len(records)).
			Msg("processing batch")

		processed, failed := i.processBatch(ctx, batch, start, editor)
		if failed > 0 && processed == 0 {
			log.Ctx(ctx).Warn().Int("batch", start/batchSize+1).
				Msg("batch transaction failed, falling back to individual records")
			processed, failed = i.processIndividually(ctx, batch, start, editor)
		}

		stats.AddProcessed(int64(processed))
		stats.AddFailed(int64(failed))
	}

	i.logResults(ctx, stats)
	if stats.Failed()*2 > stats.Total() {
		return stats, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("import rejected: most records failed")
	}
	return stats, nil
}

// processBatch runs one chunk inside a single transaction. Any failure
// rolls the whole chunk back and reports every record as failed, which is
// exactly the state the individual fallback can retry from.
func (i Importer) processBatch(ctx context.Context, batch []types.DatasetRecord, offset int, editor *types.Editor) (processed, failed int) {
	err := i.withTx(ctx, func(tx ports.Tx) error {
		structure := i.Resolver.BuildStructure(ctx, tx, i.Config)
		cache, err := i.Resolver.ResolveBatch(ctx, tx, batch, structure)
		if err != nil {
			return err
		}
		for idx, record := range batch {
			if err := i.persistRecord(ctx, tx, record, offset+idx, structure, cache, editor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("batch transaction failed")
		return 0, len(batch)
	}
	return len(batch), 0
}

// processIndividually retries each record of a failed chunk in its own
// transaction with fresh reference resolution. Per-record failures are
// logged and counted without aborting the siblings.
func (i Importer) processIndividually(ctx context.Context, batch []types.DatasetRecord, offset int, editor *types.Editor) (processed, failed int) {
	for idx, record := range batch {
		err := i.withTx(ctx, func(tx ports.Tx) error {
			structure := i.Resolver.BuildStructure(ctx, tx, i.Config)
			foreignKeys := i.Resolver.ResolveRecord(ctx, tx, record, structure)
			return i.persist(ctx, tx, record, offset+idx, foreignKeys, editor)
		})
		if err != nil {
			failed++
			log.Ctx(ctx).Error().Err(err).Int("index", offset+idx).Msg("failed to process record")
			continue
		}
		processed++
	}
	return processed, failed
}

// persistRecord resolves foreign keys through the batch cache and persists
// one record.
func (i Importer) persistRecord(ctx context.Context, q ports.Querier, record types.DatasetRecord, idx int, structure types.NavigationStructure, cache types.BatchCache, editor *types.Editor) error {
	foreignKeys := make(map[string]*int64, len(structure))
	for _, entity := range structure {
		foreignKeys[entity.ForeignKeyColumn] = nil
		name := strings.TrimSpace(record.NavigationField(entity.Field))
		if name == "" {
			continue
		}
		if id, ok := cache[entity.Key][name]; ok {
			value := id
			foreignKeys[entity.ForeignKeyColumn] = &value
		}
	}
	return i.persist(ctx, q, record, idx, foreignKeys, editor)
}

func (i Importer) persist(ctx context.Context, q ports.Querier, record types.DatasetRecord, idx int, foreignKeys map[string]*int64, editor *types.Editor) error {
	name := record.ProcessName
	if name == "" {
		name = FallbackDatasetName(i.Clock(), idx)
	}
	log.Ctx(ctx).Debug().Str("dataset", name).Msg("processing record")

	row := DatasetRow{
		ID:          DeriveDatasetID(i.Config.Namespace, name, foreignKeys),
		Name:        name,
		Metadata:    record.AllMetadata(),
		ForeignKeys: foreignKeys,
	}
	return i.compiler.Persist(ctx, q, row, editor)
}

// withTx acquires a connection, runs fn in a transaction, and commits when
// fn succeeds. Rollback on a committed transaction is a no-op, so the
// deferred call is always safe.
func (i Importer) withTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	conn, err := i.DB.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (i Importer) logResults(ctx context.Context, stats *types.ImportStats) {
	if stats.Failed() > 0 {
		log.Ctx(ctx).Warn().
			Int64("failed", stats.Failed()).Int64("total", stats.Total()).
			Msg("import completed with failures")
		return
	}
	log.Ctx(ctx).Info().Int64("processed", stats.Processed()).Msg("all records processed")
}

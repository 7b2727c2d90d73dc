// Copyright 2025 Docshelf Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/docshelf/canopy/core"
)

// maxTitleLen caps titles in failure records so one pathological
// document cannot bloat a run report.
const maxTitleLen = 80

// DocumentMigrator migrates one document and always settles with a
// result, never an error.
type DocumentMigrator interface {
	MigrateDocument(ctx context.Context, remoteId string) *core.MigrationResult
}

// Scheduler drives migrations across many documents. Document count
// picks the strategy; within a batch all documents run concurrently on
// a worker pool, and the next batch starts only after every document in
// the current one has settled.
type Scheduler struct {
	migrator   DocumentMigrator
	strategyFn StrategyFn
	tracker    *ProgressTracker
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStrategyFn overrides the default strategy selection.
func WithStrategyFn(fn StrategyFn) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.strategyFn = fn
		}
	}
}

// WithProgress attaches a progress tracker to the run.
func WithProgress(tracker *ProgressTracker) Option {
	return func(s *Scheduler) {
		s.tracker = tracker
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler over the given migrator.
func NewScheduler(migrator DocumentMigrator, opts ...Option) (*Scheduler, error) {
	if migrator == nil {
		return nil, ErrMigratorRequired
	}

	s := &Scheduler{
		migrator:   migrator,
		strategyFn: SelectStrategy,
		logger:     slog.Default().With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MigrateAll migrates every listed document and aggregates the run.
// The summary always satisfies Successful+Failed == Total and carries
// one result per input id, in input order. No document failure, however
// severe, aborts the run.
func (s *Scheduler) MigrateAll(ctx context.Context, documentIds []string) *core.BatchSummary {
	summary := &core.BatchSummary{
		Total:       len(documentIds),
		PerDocument: make([]*core.MigrationResult, 0, len(documentIds)),
	}
	if len(documentIds) == 0 {
		return summary
	}

	strategy := s.strategyFn(len(documentIds))
	if strategy.BatchSize <= 0 {
		strategy.BatchSize = len(documentIds)
	}
	s.logger.Info("starting migration run",
		"documents", len(documentIds), "strategy", strategy.Name,
		"batchSize", strategy.BatchSize, "risk", strategy.RiskLevel)
	if s.tracker != nil {
		s.tracker.Start(strategy.Name, strategy.BatchSize)
	}

	pool, err := ants.NewPool(strategy.BatchSize)
	if err != nil {
		// No pool, no run: settle every document as failed so the
		// summary invariants still hold.
		for _, id := range documentIds {
			summary.PerDocument = append(summary.PerDocument, failedResult(id, "", "create worker pool", err))
		}
		summary.Failed = len(documentIds)
		return summary
	}
	defer pool.Release()

	batches := splitBatches(documentIds, strategy.BatchSize)
	for bi, batch := range batches {
		results := s.runBatch(ctx, pool, batch)
		for _, result := range results {
			summary.PerDocument = append(summary.PerDocument, result)
			if result.Success {
				summary.Successful++
			} else {
				summary.Failed++
				s.logFailure(result)
			}
			if s.tracker != nil {
				s.tracker.DocumentDone(result.Title, result.Success)
			}
		}
		if s.tracker != nil {
			s.tracker.BatchDone(bi, len(batches))
		}

		if strategy.Pause > 0 && bi < len(batches)-1 {
			select {
			case <-ctx.Done():
				// Settle the remaining documents as failed rather
				// than returning a short summary.
				for _, rest := range batches[bi+1:] {
					for _, id := range rest {
						summary.PerDocument = append(summary.PerDocument, failedResult(id, "", "run cancelled", ctx.Err()))
						summary.Failed++
					}
				}
				if s.tracker != nil {
					s.tracker.Finish()
				}
				return summary
			case <-time.After(strategy.Pause):
			}
		}
	}

	if s.tracker != nil {
		s.tracker.Finish()
	}
	s.logger.Info("migration run complete",
		"total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
	return summary
}

// MigrateFrom lists document ids through the given query and migrates
// them all. A query failure is one zero-progress failed run, not a
// panic: the returned summary is empty and satisfies every invariant.
func (s *Scheduler) MigrateFrom(ctx context.Context, list func(ctx context.Context) ([]string, error)) *core.BatchSummary {
	ids, err := list(ctx)
	if err != nil {
		s.logger.Error("document listing failed, nothing migrated", "err", err)
		return &core.BatchSummary{PerDocument: []*core.MigrationResult{}}
	}
	return s.MigrateAll(ctx, ids)
}

// runBatch runs one batch to completion. The wait group is the barrier:
// every document settles before the function returns. Results come back
// in batch order regardless of completion order.
func (s *Scheduler) runBatch(ctx context.Context, pool *ants.Pool, batch []string) []*core.MigrationResult {
	results := make([]*core.MigrationResult, len(batch))

	var wg sync.WaitGroup
	for i, id := range batch {
		wg.Add(1)
		i, id := i, id
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = s.settle(ctx, id)
		})
		if err != nil {
			wg.Done()
			results[i] = failedResult(id, "", "submit to worker pool", err)
		}
	}
	wg.Wait()

	for i := range results {
		results[i].Title = truncateTitle(results[i].Title)
	}
	return results
}

// settle runs one migration and converts a panicking migrator into a
// failed result. The scheduler's contract is that nothing a single
// document does can take down the run.
func (s *Scheduler) settle(ctx context.Context, id string) (result *core.MigrationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(id, "", "migration panicked", fmt.Errorf("%v", r))
		}
	}()
	return s.migrator.MigrateDocument(ctx, id)
}

func (s *Scheduler) logFailure(result *core.MigrationResult) {
	message := ""
	if len(result.Errors) > 0 {
		message = result.Errors[len(result.Errors)-1]
	}
	s.logger.Warn("document failed",
		"document", result.DocumentId, "title", result.Title,
		"class", ClassifyFailure(message), "err", message)
}

// splitBatches cuts ids into consecutive groups of at most size.
func splitBatches(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

func failedResult(id, title, stage string, err error) *core.MigrationResult {
	return &core.MigrationResult{
		DocumentId: id,
		Title:      truncateTitle(title),
		Errors:     []string{fmt.Sprintf("%s: %v", stage, err)},
	}
}

func truncateTitle(title string) string {
	if len(title) <= maxTitleLen {
		return title
	}
	return title[:maxTitleLen-3] + "..."
}

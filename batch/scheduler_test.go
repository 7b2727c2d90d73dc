package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docshelf/canopy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMigrator fails ids listed in failing and panics on ids listed
// in panicking.
type scriptedMigrator struct {
	failing    map[string]bool
	panicking  map[string]bool
	delay      time.Duration
	inFlight   atomic.Int32
	peak       atomic.Int32
	mu         sync.Mutex
	migratedAt map[string]time.Time
}

func newScriptedMigrator() *scriptedMigrator {
	return &scriptedMigrator{
		failing:    map[string]bool{},
		panicking:  map[string]bool{},
		migratedAt: map[string]time.Time{},
	}
}

func (m *scriptedMigrator) MigrateDocument(ctx context.Context, id string) *core.MigrationResult {
	current := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.peak.Load()
		if current <= peak || m.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.migratedAt[id] = time.Now()
	m.mu.Unlock()

	if m.panicking[id] {
		panic("migrator blew up on " + id)
	}
	if m.failing[id] {
		return &core.MigrationResult{
			DocumentId: id,
			Title:      "Title of " + id,
			Errors:     []string{"fetch document metadata: rate limit exceeded"},
		}
	}
	return &core.MigrationResult{Success: true, DocumentId: id, Title: "Title of " + id}
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("doc-%03d", i)
	}
	return out
}

func TestMigrateAll_AllSucceed(t *testing.T) {
	migrator := newScriptedMigrator()
	s, err := NewScheduler(migrator)
	require.NoError(t, err)

	summary := s.MigrateAll(context.Background(), ids(8))

	assert.Equal(t, 8, summary.Total)
	assert.Equal(t, 8, summary.Successful)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.PerDocument, 8)
	assert.Equal(t, "doc-000", summary.PerDocument[0].DocumentId, "results keep input order")
}

func TestMigrateAll_SummaryInvariants(t *testing.T) {
	migrator := newScriptedMigrator()
	migrator.failing["doc-002"] = true
	migrator.failing["doc-007"] = true
	migrator.panicking["doc-011"] = true

	s, err := NewScheduler(migrator)
	require.NoError(t, err)

	summary := s.MigrateAll(context.Background(), ids(15))

	assert.Equal(t, 15, summary.Total)
	assert.Equal(t, summary.Total, summary.Successful+summary.Failed)
	assert.Len(t, summary.PerDocument, summary.Total)
	assert.Equal(t, 3, summary.Failed)
}

func TestMigrateAll_PanicBecomesFailedResult(t *testing.T) {
	migrator := newScriptedMigrator()
	migrator.panicking["doc-001"] = true

	s, err := NewScheduler(migrator)
	require.NoError(t, err)

	summary := s.MigrateAll(context.Background(), ids(3))

	require.Equal(t, 1, summary.Failed)
	var failed *core.MigrationResult
	for _, r := range summary.PerDocument {
		if !r.Success {
			failed = r
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "doc-001", failed.DocumentId)
	assert.Contains(t, failed.Errors[0], "panicked")
}

func TestMigrateAll_BatchBarrier(t *testing.T) {
	migrator := newScriptedMigrator()
	migrator.delay = 10 * time.Millisecond

	// Force batches of 4 with no pause so the test stays fast.
	s, err := NewScheduler(migrator, WithStrategyFn(func(count int) core.BatchStrategy {
		return core.BatchStrategy{Name: "test", BatchSize: 4}
	}))
	require.NoError(t, err)

	summary := s.MigrateAll(context.Background(), ids(12))

	assert.Equal(t, 12, summary.Successful)
	assert.LessOrEqual(t, int(migrator.peak.Load()), 4, "concurrency must not exceed batch size")
}

func TestMigrateAll_EmptyInput(t *testing.T) {
	s, err := NewScheduler(newScriptedMigrator())
	require.NoError(t, err)

	summary := s.MigrateAll(context.Background(), nil)

	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.PerDocument)
}

func TestMigrateAll_TruncatesLongTitles(t *testing.T) {
	migrator := newScriptedMigrator()
	longId := strings.Repeat("x", 200)
	s, err := NewScheduler(migrator)
	require.NoError(t, err)

	// Title is "Title of <id>", far past the cap.
	summary := s.MigrateAll(context.Background(), []string{longId})

	require.Len(t, summary.PerDocument, 1)
	assert.LessOrEqual(t, len(summary.PerDocument[0].Title), 80)
	assert.True(t, strings.HasSuffix(summary.PerDocument[0].Title, "..."))
}

func TestMigrateFrom_QueryFailure(t *testing.T) {
	s, err := NewScheduler(newScriptedMigrator())
	require.NoError(t, err)

	summary := s.MigrateFrom(context.Background(), func(ctx context.Context) ([]string, error) {
		return nil, errors.New("store unavailable")
	})

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Successful)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.PerDocument)
}

func TestMigrateFrom_ListsAndRuns(t *testing.T) {
	migrator := newScriptedMigrator()
	s, err := NewScheduler(migrator)
	require.NoError(t, err)

	summary := s.MigrateFrom(context.Background(), func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Successful)
}

func TestProgressTracker_Output(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 2)

	tracker.Start("full-parallel", 2)
	tracker.DocumentDone("First", true)
	tracker.DocumentDone("Second", false)
	tracker.Finish()

	out := buf.String()
	assert.Contains(t, out, "migrating 2 documents")
	assert.Contains(t, out, "[1/2] ok First")
	assert.Contains(t, out, "[2/2] FAILED Second")
	assert.Contains(t, out, "1 succeeded, 1 failed")
}

func TestNewScheduler_RequiresMigrator(t *testing.T) {
	_, err := NewScheduler(nil)
	require.ErrorIs(t, err, ErrMigratorRequired)
}

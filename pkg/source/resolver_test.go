package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/timepath/pkg/partition"
	"github.com/txn2/timepath/pkg/storage"
	"github.com/txn2/timepath/pkg/tap"
)

const dayTemplate = partition.Template("/logs/%Y/%m/%d/*")

// fakeLister resolves paths from a fixed map and counts listings. Listings
// may run concurrently.
type fakeLister struct {
	entries map[string][]storage.Entry
	err     error

	mu    sync.Mutex
	calls []string
}

func (f *fakeLister) Name() string { return "fake" }

func (f *fakeLister) List(_ context.Context, path string) ([]storage.Entry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[path], nil
}

func (f *fakeLister) Close() error { return nil }

func logRange(t *testing.T) partition.Range {
	t.Helper()
	r, err := partition.NewRange(
		time.Date(2012, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

// partialLister has goodness [bad, good, good, bad] over the four days of the
// range: 01-30 and 02-02 are missing.
func partialLister() *fakeLister {
	return &fakeLister{entries: map[string][]storage.Entry{
		"/logs/2012/01/31/*": {{Name: "part-00000"}},
		"/logs/2012/02/01/*": {{Name: "part-00000"}},
	}}
}

func TestResolveReadLenientAny(t *testing.T) {
	r := New(partialLister())

	tp, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)

	assert.Equal(t, []string{"/logs/2012/01/31/*", "/logs/2012/02/01/*"}, tp.Paths())
	assert.NotEmpty(t, tp.Identifier())
}

func TestResolveReadStrictAll(t *testing.T) {
	r := New(partialLister())

	_, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, StrictAll)

	var incomplete *IncompletePartitionsError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"/logs/2012/01/30/*", "/logs/2012/02/02/*"}, incomplete.Bad)
	assert.Contains(t, incomplete.Error(), "/logs/2012/01/30/*")
	assert.Contains(t, incomplete.Error(), string(dayTemplate))
}

func TestResolveReadStrictAllComplete(t *testing.T) {
	lister := partialLister()
	lister.entries["/logs/2012/01/30/*"] = []storage.Entry{{Name: "part-00000"}}
	lister.entries["/logs/2012/02/02/*"] = []storage.Entry{{Name: "part-00000"}}
	r := New(lister)

	tp, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, StrictAll)
	require.NoError(t, err)
	assert.Len(t, tp.Paths(), 4)
}

func TestResolveReadMostRecentGood(t *testing.T) {
	lister := partialLister()
	r := New(lister)

	tp, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, MostRecentGood)
	require.NoError(t, err)

	// Latest good is 02-01, skipping the bad 02-02.
	assert.Equal(t, []string{"/logs/2012/02/01/*"}, tp.Paths())
	assert.Equal(t, "/logs/2012/02/01/*", tp.Identifier())

	// Short-circuit: only the tail is listed, newest first.
	assert.Equal(t, []string{"/logs/2012/02/02/*", "/logs/2012/02/01/*"}, lister.calls)
}

func TestResolveReadMostRecentGoodSelectsLatest(t *testing.T) {
	// Goodness [good, bad, good] at t1 < t2 < t3 must select t3, not t1.
	lister := &fakeLister{entries: map[string][]storage.Entry{
		"/logs/2012/01/30/*": {{Name: "part-00000"}},
		"/logs/2012/02/01/*": {{Name: "part-00000"}},
	}}
	r := New(lister)
	rng, err := partition.NewRange(
		time.Date(2012, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	tp, resolveErr := r.ResolveRead(context.Background(), dayTemplate, rng, time.UTC, MostRecentGood)
	require.NoError(t, resolveErr)
	assert.Equal(t, []string{"/logs/2012/02/01/*"}, tp.Paths())
}

func TestResolveReadNoUsablePartitions(t *testing.T) {
	for _, policy := range []Policy{LenientAny, MostRecentGood} {
		t.Run(policy.String(), func(t *testing.T) {
			r := New(&fakeLister{})

			_, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, policy)

			var noUsable *NoUsablePartitionsError
			require.ErrorAs(t, err, &noUsable)
			assert.Contains(t, noUsable.Error(), string(dayTemplate))
			assert.Contains(t, noUsable.Error(), "UTC")
		})
	}
}

func TestResolveReadRequiresWildcard(t *testing.T) {
	r := New(partialLister())

	_, err := r.ResolveRead(context.Background(), "/logs/%Y/%m/%d", logRange(t), time.UTC, LenientAny)

	var terr *partition.TemplateError
	require.ErrorAs(t, err, &terr)
}

func TestResolveReadBackendErrorPropagates(t *testing.T) {
	backendErr := errors.New("permission denied")
	r := New(&fakeLister{err: backendErr})

	_, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, StrictAll)
	require.ErrorIs(t, err, backendErr)
}

func TestCreateTapPlaceholder(t *testing.T) {
	r := New(&fakeLister{})

	tp, err := r.CreateTap(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)

	// Placeholder references the first requested path; reading it fails.
	assert.Equal(t, "/logs/2012/01/30/*", tp.Identifier())
	assert.Empty(t, tp.Paths())

	// The validation pass surfaces the real failure.
	err = r.Validate(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	var noUsable *NoUsablePartitionsError
	require.ErrorAs(t, err, &noUsable)
}

func TestCreateTapMostRecentGoodAllBad(t *testing.T) {
	r := New(&fakeLister{})

	tp, err := r.CreateTap(context.Background(), dayTemplate, logRange(t), time.UTC, MostRecentGood)
	require.NoError(t, err)

	// The placeholder references the first requested path, not the last one
	// validated.
	assert.Equal(t, "/logs/2012/01/30/*", tp.Identifier())
	assert.Empty(t, tp.Paths())
}

func TestSelectGoodCandidatesChronological(t *testing.T) {
	for _, policy := range []Policy{StrictAll, LenientAny, MostRecentGood} {
		t.Run(policy.String(), func(t *testing.T) {
			r := New(&fakeLister{})

			candidates, _, _ := r.selectGood(context.Background(), dayTemplate, logRange(t), time.UTC, policy)
			require.NotEmpty(t, candidates)
			for i := 1; i < len(candidates); i++ {
				assert.False(t, candidates[i].Instant.Before(candidates[i-1].Instant),
					"candidate %d (%s) precedes candidate %d (%s)",
					i, candidates[i].Path, i-1, candidates[i-1].Path)
			}
		})
	}
}

func TestCreateTapStrictIncomplete(t *testing.T) {
	r := New(partialLister())

	tp, err := r.CreateTap(context.Background(), dayTemplate, logRange(t), time.UTC, StrictAll)
	require.NoError(t, err)
	assert.Empty(t, tp.Paths())
}

func TestValidate(t *testing.T) {
	r := New(partialLister())

	require.NoError(t, r.Validate(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny))

	err := r.Validate(context.Background(), dayTemplate, logRange(t), time.UTC, StrictAll)
	var incomplete *IncompletePartitionsError
	require.ErrorAs(t, err, &incomplete)
}

func TestResolveWrite(t *testing.T) {
	r := New(storage.NewNoopLister())

	path, err := r.ResolveWrite(context.Background(), dayTemplate, logRange(t), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "/logs/2012/02/02", path)
}

func TestResolveReadMarkerValidator(t *testing.T) {
	lister := &fakeLister{entries: map[string][]storage.Entry{
		"/logs/2012/01/31/*": {{Name: "part-00000"}, {Name: SuccessMarker}},
		"/logs/2012/02/01/*": {{Name: "part-00000"}},
	}}
	r := New(lister, WithValidator(MarkerValidator{Lister: lister}))

	tp, err := r.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)

	// 02-01 exists but has no completion marker.
	assert.Equal(t, []string{"/logs/2012/01/31/*"}, tp.Paths())
}

func TestResolveReadIdentityMode(t *testing.T) {
	lister := partialLister()

	deterministic := New(lister, WithIdentityMode(tap.DeterministicIdentity))
	a, err := deterministic.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)
	b, err := deterministic.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)
	assert.Equal(t, a.Identifier(), b.Identifier())

	random := New(lister)
	c, err := random.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)
	d, err := random.ResolveRead(context.Background(), dayTemplate, logRange(t), time.UTC, LenientAny)
	require.NoError(t, err)
	assert.NotEqual(t, c.Identifier(), d.Identifier())
}

package source

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/txn2/timepath/pkg/audit"
	"github.com/txn2/timepath/pkg/partition"
	"github.com/txn2/timepath/pkg/storage"
	"github.com/txn2/timepath/pkg/tap"
)

// defaultWorkers bounds concurrent validation listings per resolution call.
const defaultWorkers = 8

// Candidate pairs an expanded partition path with its validation outcome.
// Candidates are write-once and ordered chronologically.
type Candidate struct {
	Path    string
	Instant time.Time
	Good    bool
}

// Resolver resolves read and write locations for time-partitioned sources.
// Each call re-reads filesystem state fresh; nothing is cached across calls.
type Resolver struct {
	lister    storage.Lister
	validator Validator
	auditLog  audit.Logger
	logger    *slog.Logger
	workers   int
	identity  tap.IdentityMode
	scheme    tap.Scheme
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithValidator overrides the default existence validator, e.g. with a
// MarkerValidator for completion-gated sources.
func WithValidator(v Validator) Option {
	return func(r *Resolver) { r.validator = v }
}

// WithAuditLogger records resolution outcomes to an audit store.
func WithAuditLogger(l audit.Logger) Option {
	return func(r *Resolver) { r.auditLog = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithWorkers bounds concurrent validation listings.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithIdentityMode selects how composite taps derive their identity.
func WithIdentityMode(m tap.IdentityMode) Option {
	return func(r *Resolver) { r.identity = m }
}

// WithScheme sets the record encoding threaded into taps.
func WithScheme(s tap.Scheme) Option {
	return func(r *Resolver) { r.scheme = s }
}

// New creates a resolver over a storage backend.
func New(lister storage.Lister, opts ...Option) *Resolver {
	r := &Resolver{
		lister:   lister,
		auditLog: audit.NewNoopLogger(),
		logger:   slog.Default(),
		workers:  defaultWorkers,
		identity: tap.RandomIdentity,
		scheme:   tap.TextLine,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = ExistenceValidator{Lister: lister}
	}
	return r
}

// ResolveRead resolves a source into a single logical tap under the policy.
// Policy failures surface as *IncompletePartitionsError or
// *NoUsablePartitionsError; backend errors propagate unwrapped.
func (r *Resolver) ResolveRead(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location, policy Policy) (tap.Tap, error) {
	evt := audit.NewEvent(audit.OperationResolveRead).
		WithSource(string(tmpl), rng.Start, rng.End, loc.String(), policy.String()).
		WithBackend(r.lister.Name())

	candidates, good, err := r.selectGood(ctx, tmpl, rng, loc, policy)
	r.record(ctx, evt.WithCandidates(len(candidates), len(good)), err)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved source for read",
		"template", string(tmpl),
		"range", rng.String(),
		"policy", policy.String(),
		"partitions", len(good),
	)
	return tap.Aggregate(good, string(tmpl), r.scheme, r.identity), nil
}

// CreateTap builds a read tap without raising policy failures: a source with
// zero usable partitions yields a placeholder whose failure is surfaced by
// Validate before any read. Template and backend errors still fail.
func (r *Resolver) CreateTap(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location, policy Policy) (tap.Tap, error) {
	candidates, good, err := r.selectGood(ctx, tmpl, rng, loc, policy)
	if err != nil {
		switch err.(type) {
		case *IncompletePartitionsError, *NoUsablePartitionsError:
			// Deferred to the validation pass.
		default:
			return nil, err
		}
	}

	fallback := string(tmpl)
	if len(candidates) > 0 {
		fallback = candidates[0].Path
	}

	if _, isIncomplete := err.(*IncompletePartitionsError); isIncomplete {
		// StrictAll with gaps still aggregates nothing readable.
		good = nil
	}
	return tap.Aggregate(good, fallback, r.scheme, r.identity), nil
}

// Validate pre-flights a source under the policy without building a handle,
// so a job can fail before committing resources. It surfaces the same
// failure kinds as ResolveRead.
func (r *Resolver) Validate(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location, policy Policy) error {
	evt := audit.NewEvent(audit.OperationValidate).
		WithSource(string(tmpl), rng.Start, rng.End, loc.String(), policy.String()).
		WithBackend(r.lister.Name())

	candidates, good, err := r.selectGood(ctx, tmpl, rng, loc, policy)
	r.record(ctx, evt.WithCandidates(len(candidates), len(good)), err)
	return err
}

// ResolveWrite resolves the physical path owned by the range end. Writes
// always target the end partition; no filesystem state is consulted.
func (r *Resolver) ResolveWrite(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location) (string, error) {
	evt := audit.NewEvent(audit.OperationResolveWrite).
		WithSource(string(tmpl), rng.Start, rng.End, loc.String(), "")

	path, err := partition.WritePath(tmpl, rng, loc)
	r.record(ctx, evt, err)
	return path, err
}

// selectGood expands the range and applies the policy, returning the
// validated candidates and the surviving good paths in chronological order.
func (r *Resolver) selectGood(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location, policy Policy) ([]Candidate, []string, error) {
	if !tmpl.Partitioned() {
		return nil, nil, &partition.TemplateError{
			Template: string(tmpl),
			Reason:   "read enumeration requires a trailing " + partition.ReadWildcard + " marker",
		}
	}

	steps, err := partition.Expand(tmpl, rng, loc)
	if err != nil {
		return nil, nil, err
	}

	if policy == MostRecentGood {
		return r.selectMostRecent(ctx, tmpl, rng, loc, steps)
	}

	candidates, err := r.validateAll(ctx, steps)
	if err != nil {
		return nil, nil, err
	}

	var good, bad []string
	for _, c := range candidates {
		if c.Good {
			good = append(good, c.Path)
		} else {
			bad = append(bad, c.Path)
		}
	}

	switch policy {
	case StrictAll:
		if len(bad) > 0 {
			return candidates, nil, &IncompletePartitionsError{
				Template: string(tmpl),
				Range:    rng,
				Timezone: loc.String(),
				Bad:      bad,
			}
		}
	case LenientAny:
		if len(good) == 0 {
			return candidates, nil, &NoUsablePartitionsError{
				Template: string(tmpl),
				Range:    rng,
				Timezone: loc.String(),
			}
		}
	}
	return candidates, good, nil
}

// validateAll validates every step with bounded concurrency, preserving
// chronological order in the result.
func (r *Resolver) validateAll(ctx context.Context, steps []partition.Step) ([]Candidate, error) {
	candidates := make([]Candidate, len(steps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, s := range steps {
		g.Go(func() error {
			good, err := r.validator.Good(gctx, s.Path)
			if err != nil {
				return err
			}
			candidates[i] = Candidate{Path: s.Path, Instant: s.Instant, Good: good}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// selectMostRecent validates newest to oldest, short-circuiting at the first
// good partition so only the tail of a long range is listed. Validation order
// is an implementation detail; returned candidates are chronological.
func (r *Resolver) selectMostRecent(ctx context.Context, tmpl partition.Template, rng partition.Range, loc *time.Location, steps []partition.Step) (checked []Candidate, good []string, err error) {
	defer func() { slices.Reverse(checked) }()

	for i := len(steps) - 1; i >= 0; i-- {
		ok, goodErr := r.validator.Good(ctx, steps[i].Path)
		if goodErr != nil {
			return checked, nil, goodErr
		}
		checked = append(checked, Candidate{Path: steps[i].Path, Instant: steps[i].Instant, Good: ok})
		if ok {
			return checked, []string{steps[i].Path}, nil
		}
	}
	return checked, nil, &NoUsablePartitionsError{
		Template: string(tmpl),
		Range:    rng,
		Timezone: loc.String(),
	}
}

func (r *Resolver) record(ctx context.Context, evt *audit.Event, err error) {
	evt.Complete(failureKind(err), err)
	if logErr := r.auditLog.Log(ctx, *evt); logErr != nil {
		r.logger.Warn("recording audit event", "error", logErr)
	}
}

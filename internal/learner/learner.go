// Package learner derives new extraction rules from corrected training
// samples.
//
// Learning is deterministic. Samples are visited in corpus order, and a rule
// is kept only when it reproduces its correction without losing any value
// the working set already produced. Rules are only ever added.
package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/extract"
	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/rules"
)

// Defaults for Options.
const (
	DefaultMinSamples = 5
	DefaultMaxPasses  = 4
	DefaultThreshold  = 0.6
)

// InsufficientDataError is returned when the corpus is smaller than the
// configured minimum.
type InsufficientDataError struct {
	Count    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d samples, %d required", e.Count, e.Required)
}

// Unlearned is a correction no candidate rule could reproduce.
type Unlearned struct {
	SampleID string      `json:"sample_id"`
	Field    fields.Kind `json:"field"`
	Value    string      `json:"value"`
	Reason   string      `json:"reason"`
}

// Outcome is the result of one Learn call.
type Outcome struct {
	Samples   int          `json:"samples"`
	Passes    int          `json:"passes"`
	Added     []rules.Rule `json:"added"`
	Unlearned []Unlearned  `json:"unlearned"`
}

// Options tune a Learner.
type Options struct {
	// MinSamples is the corpus size below which Learn refuses to run.
	MinSamples int
	// MaxPasses bounds the number of passes over the samples.
	MaxPasses int
	// Threshold is the serving confidence threshold a learned rule must
	// clear.
	Threshold float64
	// Parallelism bounds concurrent re-evaluation. Values below 1 use
	// GOMAXPROCS.
	Parallelism int
}

func (o Options) withDefaults() Options {
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// Learner synthesizes and verifies rules.
type Learner struct {
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	opts       atomic.Pointer[Options]
}

// New creates a Learner.
func New(n *normalize.Normalizer, opts Options, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Learner{normalizer: n, logger: logger}
	l.SetOptions(opts)
	return l
}

// SetOptions replaces the options used by subsequent Learn calls.
func (l *Learner) SetOptions(opts Options) {
	o := opts.withDefaults()
	l.opts.Store(&o)
}

// Options returns the options currently in effect.
func (l *Learner) Options() Options {
	return *l.opts.Load()
}

// target is one corrected value of one sample.
type target struct {
	sample int
	field  fields.Kind
	value  string
}

// hits is the set of corrected values a rule set reproduces.
type hits map[target]bool

// Learn runs the learning passes over samples, starting from base. base is
// not modified; the rules to add to it are returned in Outcome.Added.
func (l *Learner) Learn(ctx context.Context, samples []corpus.Sample, base *rules.RuleSet) (*Outcome, error) {
	opts := l.Options()
	if len(samples) < opts.MinSamples {
		return nil, &InsufficientDataError{Count: len(samples), Required: opts.MinSamples}
	}

	docs := make([]normalize.Document, len(samples))
	for i, s := range samples {
		docs[i] = l.normalizer.Normalize(s.Spans)
	}

	working := base
	baseline, err := l.evaluate(ctx, opts, docs, samples, working)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Samples: len(samples)}
	reasons := make(map[target]string)
	for pass := 1; pass <= opts.MaxPasses; pass++ {
		out.Passes = pass
		added := 0
		for i, s := range samples {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, kind := range fields.All() {
				for _, want := range s.Corrections[kind] {
					t := target{sample: i, field: kind, value: want.Canonical()}
					if baseline[t] {
						continue
					}
					rule, next, nextHits, reason, err := l.learnOne(ctx, opts, docs, samples, working, baseline, t, want)
					if err != nil {
						return nil, err
					}
					if next == nil {
						reasons[t] = reason
						continue
					}
					out.Added = append(out.Added, rule)
					working, baseline = next, nextHits
					added++
					l.logger.Debug("rule learned", "field", kind, "sample", s.ID, "pass", pass)
				}
			}
		}
		if added == 0 {
			break
		}
	}

	for i, s := range samples {
		for _, kind := range fields.All() {
			for _, want := range s.Corrections[kind] {
				t := target{sample: i, field: kind, value: want.Canonical()}
				if baseline[t] {
					continue
				}
				u := Unlearned{SampleID: s.ID, Field: kind, Value: t.value, Reason: reasons[t]}
				if u.Reason == "" {
					u.Reason = "no candidate rule verified"
				}
				l.logger.Warn("unlearnable sample", "sample", u.SampleID, "field", u.Field, "value", u.Value, "reason", u.Reason)
				out.Unlearned = append(out.Unlearned, u)
			}
		}
	}
	return out, nil
}

// learnOne tries each candidate for t in order and returns the first
// verified rule with the extended set, or a nil set and the most telling
// rejection reason: a regression outranks a miss, which outranks a
// duplicate.
func (l *Learner) learnOne(ctx context.Context, opts Options, docs []normalize.Document, samples []corpus.Sample,
	working *rules.RuleSet, baseline hits, t target, want fields.Value) (rules.Rule, *rules.RuleSet, hits, string, error) {
	priority := rules.PriorityLabel - 1
	if p, ok := working.MinPriority(t.field); ok {
		priority = p - 1
	}
	cands := synthesize(docs[t.sample].Text(), t.field, want, priority)
	if len(cands) == 0 {
		return rules.Rule{}, nil, nil, "value not found in the document text", nil
	}

	reason, rank := "", 0
	reject := func(r string, n int) {
		if n >= rank {
			reason, rank = r, n
		}
	}
	for _, c := range cands {
		if working.Has(c.Field, c.Pattern) {
			reject("an equivalent rule already exists", 1)
			continue
		}
		trial, err := working.Extend(working.Version(), working.CreatedAt(), []rules.Rule{c})
		if err != nil {
			reject(err.Error(), 1)
			continue
		}
		res, err := extract.Extract(docs[t.sample], trial, opts.Threshold)
		if err != nil {
			return rules.Rule{}, nil, nil, "", err
		}
		if !reproduces(res, t.field, want) {
			reject("candidate rule did not reproduce the value", 2)
			continue
		}
		trialHits, err := l.evaluate(ctx, opts, docs, samples, trial)
		if err != nil {
			return rules.Rule{}, nil, nil, "", err
		}
		if n := regressions(baseline, trialHits); n > 0 {
			reject(fmt.Sprintf("candidate rule regressed %d other values", n), 3)
			continue
		}
		return c, trial, trialHits, "", nil
	}
	return rules.Rule{}, nil, nil, reason, nil
}

// evaluate extracts every sample under rs and records which corrections it
// reproduces.
func (l *Learner) evaluate(ctx context.Context, opts Options, docs []normalize.Document, samples []corpus.Sample, rs *rules.RuleSet) (hits, error) {
	h := make(hits)
	if rs.Len() == 0 {
		return h, nil
	}
	results, err := extract.ExtractAll(ctx, docs, rs, opts.Threshold, opts.Parallelism)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("evaluate rule set: %w", err)
	}
	for i, s := range samples {
		for kind, values := range s.Corrections {
			for _, want := range values {
				if reproduces(results[i], kind, want) {
					h[target{sample: i, field: kind, value: want.Canonical()}] = true
				}
			}
		}
	}
	return h, nil
}

func reproduces(res *extract.Result, kind fields.Kind, want fields.Value) bool {
	for _, v := range res.Values(kind) {
		if v.Canonical() == want.Canonical() {
			return true
		}
	}
	return false
}

func regressions(before, after hits) int {
	n := 0
	for t := range before {
		if !after[t] {
			n++
		}
	}
	return n
}

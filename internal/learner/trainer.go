package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/rules"
)

// ErrRetrainInProgress is returned when Retrain is called while another
// retrain is running.
var ErrRetrainInProgress = errors.New("retrain already in progress")

// Report summarizes one retrain.
type Report struct {
	SampleCount  int          `json:"sample_count"`
	Required     int          `json:"required"`
	ThresholdMet bool         `json:"threshold_met"`
	SnapshotSeq  int64        `json:"snapshot_seq"`
	Version      int          `json:"version"`
	Parent       int          `json:"parent"`
	RulesAdded   int          `json:"rules_added"`
	Added        []rules.Rule `json:"added,omitempty"`
	Unlearned    []Unlearned  `json:"unlearned"`
	Passes       int          `json:"passes"`
	Duration     string       `json:"duration"`
}

// Trainer runs retrains against the corpus and publishes the result.
type Trainer struct {
	mu      sync.Mutex
	learner *Learner
	corpus  corpus.Store
	repo    *rules.Repository
	active  *rules.Active
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrainer creates a Trainer.
func NewTrainer(l *Learner, store corpus.Store, repo *rules.Repository, active *rules.Active, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		learner: l,
		corpus:  store,
		repo:    repo,
		active:  active,
		logger:  logger,
		now:     time.Now,
	}
}

// Learner returns the learner used by retrains.
func (t *Trainer) Learner() *Learner {
	return t.learner
}

// Retrain learns from a snapshot of the corpus. When rules were added, the
// extended set is stored, marked active and then swapped in for extraction.
// Nothing is published when learning fails or ctx is cancelled.
func (t *Trainer) Retrain(ctx context.Context) (*Report, error) {
	if !t.mu.TryLock() {
		return nil, ErrRetrainInProgress
	}
	defer t.mu.Unlock()

	start := t.now()
	snap, err := t.corpus.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot corpus: %w", err)
	}
	base := t.active.Load()
	required := t.learner.Options().MinSamples

	t.logger.Info("retrain started", "samples", len(snap.Samples), "seq", snap.Seq, "base_version", base.Version())
	out, err := t.learner.Learn(ctx, snap.Samples, base)
	if err != nil {
		return nil, err
	}

	report := &Report{
		SampleCount:  len(snap.Samples),
		Required:     required,
		ThresholdMet: true,
		SnapshotSeq:  snap.Seq,
		Version:      base.Version(),
		Parent:       base.Parent(),
		Unlearned:    out.Unlearned,
		Passes:       out.Passes,
	}
	if report.Unlearned == nil {
		report.Unlearned = []Unlearned{}
	}

	if len(out.Added) > 0 {
		rs, err := t.publish(ctx, base, out.Added)
		if err != nil {
			return nil, err
		}
		report.Version = rs.Version()
		report.Parent = rs.Parent()
		report.RulesAdded = len(out.Added)
		report.Added = out.Added
	}

	report.Duration = t.now().Sub(start).String()
	t.logger.Info("retrain finished",
		"version", report.Version,
		"rules_added", report.RulesAdded,
		"unlearned", len(report.Unlearned),
		"duration", report.Duration)
	return report, nil
}

func (t *Trainer) publish(ctx context.Context, base *rules.RuleSet, added []rules.Rule) (*rules.RuleSet, error) {
	version, err := t.repo.NextVersion(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := base.Extend(version, t.now().UTC(), added)
	if err != nil {
		return nil, fmt.Errorf("extend rule set: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.repo.Save(ctx, rs); err != nil {
		return nil, err
	}
	if err := t.repo.Activate(ctx, rs.Version()); err != nil {
		return nil, err
	}
	t.active.Swap(rs)
	return rs, nil
}

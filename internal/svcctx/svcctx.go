// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/home"
	"github.com/jackzampolin/firscan/internal/learner"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/ocr"
	"github.com/jackzampolin/firscan/internal/rules"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DB            *sql.DB
	Normalizer    *normalize.Normalizer
	Rules         *rules.Active
	RuleRepo      *rules.Repository
	Corpus        corpus.Store
	Trainer       *learner.Trainer
	OCR           *ocr.Pipeline // nil when no OCR provider is available
	Metrics       *metrics.Recorder
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DBFrom extracts the database handle from context.
func DBFrom(ctx context.Context) *sql.DB {
	if s := ServicesFrom(ctx); s != nil {
		return s.DB
	}
	return nil
}

// NormalizerFrom extracts the text normalizer from context.
func NormalizerFrom(ctx context.Context) *normalize.Normalizer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Normalizer
	}
	return nil
}

// RulesFrom extracts the active rule set holder from context.
func RulesFrom(ctx context.Context) *rules.Active {
	if s := ServicesFrom(ctx); s != nil {
		return s.Rules
	}
	return nil
}

// RuleRepoFrom extracts the rule set repository from context.
func RuleRepoFrom(ctx context.Context) *rules.Repository {
	if s := ServicesFrom(ctx); s != nil {
		return s.RuleRepo
	}
	return nil
}

// CorpusFrom extracts the training corpus from context.
func CorpusFrom(ctx context.Context) corpus.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Corpus
	}
	return nil
}

// TrainerFrom extracts the trainer from context.
func TrainerFrom(ctx context.Context) *learner.Trainer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Trainer
	}
	return nil
}

// OCRFrom extracts the OCR pipeline from context.
// Returns nil when OCR is disabled or no provider could be built.
func OCRFrom(ctx context.Context) *ocr.Pipeline {
	if s := ServicesFrom(ctx); s != nil {
		return s.OCR
	}
	return nil
}

// MetricsFrom extracts the operation metrics recorder from context.
func MetricsFrom(ctx context.Context) *metrics.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
// Returns slog.Default() if not present.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

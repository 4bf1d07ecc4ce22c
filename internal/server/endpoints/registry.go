package endpoints

import (
	"github.com/jackzampolin/firscan/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Extraction endpoints
		&ExtractEndpoint{},
		&UploadEndpoint{},
		&FileEndpoint{},

		// Training endpoints
		&SubmitSampleEndpoint{},
		&ListSamplesEndpoint{},
		&RetrainEndpoint{},

		// Rule set endpoints
		&ListRuleSetsEndpoint{},
		&ActiveRuleSetEndpoint{},
		&GetRuleSetEndpoint{},

		// Metrics endpoints
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}

// TrainCommands returns endpoints grouped under the "train" subcommand.
func TrainCommands() []api.Endpoint {
	return []api.Endpoint{
		&SubmitSampleEndpoint{},
		&ListSamplesEndpoint{},
		&RetrainEndpoint{},
	}
}

// RuleSetCommands returns endpoints grouped under the "rulesets" subcommand.
func RuleSetCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListRuleSetsEndpoint{},
		&ActiveRuleSetEndpoint{},
		&GetRuleSetEndpoint{},
	}
}

// MetricsCommands returns endpoints grouped under the "metrics" subcommand.
func MetricsCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},
	}
}

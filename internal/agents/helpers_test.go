package agents

import (
	"github.com/spboyer/forge/internal/execution"
	"github.com/spboyer/forge/internal/projectconfig"
)

func testDeps(engine execution.Engine) Deps {
	cfg := projectconfig.New()
	deps := DepsFromConfig(cfg, execution.NewHandleCache(engine, cfg.ModelFallbacks, cfg.Defaults.FallbackModel))
	// keep presentation order stable
	deps.Shuffle = func(names []string) {}
	return deps
}

func agentConfig(name, kind string, params map[string]any) projectconfig.AgentConfig {
	return projectconfig.AgentConfig{Name: name, Kind: kind, Params: params}
}

func ptr[T any](v T) *T {
	return &v
}

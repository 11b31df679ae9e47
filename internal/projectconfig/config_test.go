package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Paths
	assertEqual(t, "Paths.Output", "forge/", cfg.Paths.Output)
	assertEqual(t, "Paths.League", "league_tables.json", cfg.Paths.League)

	// Defaults
	assertEqual(t, "Defaults.Engine", "copilot-sdk", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.Model", "gpt-4o", cfg.Defaults.Model)
	assertEqual(t, "Defaults.FallbackModel", "gpt-4o-mini", cfg.Defaults.FallbackModel)
	assertEqualInt(t, "Defaults.Timeout", 120, cfg.Defaults.Timeout)
	assertEqual(t, "Defaults.Strategy", "standard", cfg.Defaults.Strategy)
	assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)

	// Retry
	assertBoolPtr(t, "Retry.Enabled", true, cfg.Retry.Enabled)
	if cfg.Retry.MaxRetries == nil || *cfg.Retry.MaxRetries != 3 {
		t.Errorf("Retry.MaxRetries = %v, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BackoffFactor != 2.0 || cfg.Retry.InitialDelay != 1.0 {
		t.Errorf("Retry backoff = %v/%v, want 2/1", cfg.Retry.BackoffFactor, cfg.Retry.InitialDelay)
	}

	// League
	assertEqualInt(t, "League.PointsForWin", 3, cfg.League.PointsForWin)
	assertEqualInt(t, "League.PointsForSecond", 1, cfg.League.PointsForSecond)
	assertEqualInt(t, "League.ConsensusBonus", 1, cfg.League.ConsensusBonus)
	assertEqualInt(t, "League.FormWindow", 5, cfg.League.FormWindow)
	assertEqualInt(t, "League.MinParticipations", 3, cfg.League.MinParticipations)
	assertEqualInt(t, "League.TeamSlots", 5, cfg.League.TeamSlots)
	assertEqualInt(t, "League.VoterSlots", 11, cfg.League.VoterSlots)
	if cfg.League.FairnessThreshold != 0.6 {
		t.Errorf("League.FairnessThreshold = %v, want 0.6", cfg.League.FairnessThreshold)
	}

	// Roster
	assertEqualInt(t, "Roster.MinProducers", 3, cfg.Roster.MinProducers)
	assertEqualInt(t, "Roster.MaxProducers", 10, cfg.Roster.MaxProducers)
	assertEqualInt(t, "Roster.MinEvaluators", 3, cfg.Roster.MinEvaluators)
	assertEqualInt(t, "Roster.MaxEvaluators", 15, cfg.Roster.MaxEvaluators)
	assertBoolPtr(t, "Roster.RequireOddEvaluators", true, cfg.Roster.RequireOddEvaluators)

	// Agents
	assertEqualInt(t, "len(Producers)", 5, len(cfg.Producers))
	assertEqualInt(t, "len(Evaluators)", 11, len(cfg.Evaluators))
	assertEqualInt(t, "len(Criteria)", 6, len(cfg.Criteria))
	assertEqual(t, "ModelFallbacks[o3]", "gpt-4o", cfg.ModelFallbacks["o3"])

	// Cache
	assertBoolPtr(t, "Cache.Enabled", false, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".forge-cache", cfg.Cache.Dir)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".forge.yaml", `
paths:
  output: "runs/"
  league: "league.json"
defaults:
  engine: mock
  model: gpt-4.1
  timeout: 30
  strategy: weighted
  verbose: true
retry:
  enabled: false
  max_retries: 0
  backoff_factor: 3
  initial_delay: 0.5
  retry_on: ["EOF"]
league:
  points_for_win: 5
  form_window: 3
  min_participations: 1
  fairness_threshold: 0.5
  active_team_slots: 2
roster:
  min_producers: 2
  require_odd_evaluators: false
criteria:
  - name: originality
    weight: 1
model_fallbacks:
  gpt-4.1: gpt-4o-mini
producers:
  - name: Solo
    kind: static
    params:
      title: Fixed
evaluators:
  - name: Judge
    active: false
  - name: Critic
hooks:
  before_round:
    - command: "echo hi"
cache:
  enabled: true
  dir: ".cache"
storage:
  blob_account_url: "https://acct.blob.core.windows.net"
  blob_container: runs
  metrics_file: forge.prom
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Paths.Output", "runs/", cfg.Paths.Output)
	assertEqual(t, "Paths.League", "league.json", cfg.Paths.League)
	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.Model", "gpt-4.1", cfg.Defaults.Model)
	assertEqualInt(t, "Defaults.Timeout", 30, cfg.Defaults.Timeout)
	assertEqual(t, "Defaults.Strategy", "weighted", cfg.Defaults.Strategy)
	assertBoolPtr(t, "Defaults.Verbose", true, cfg.Defaults.Verbose)

	assertBoolPtr(t, "Retry.Enabled", false, cfg.Retry.Enabled)
	if cfg.Retry.MaxRetries == nil || *cfg.Retry.MaxRetries != 0 {
		t.Errorf("Retry.MaxRetries = %v, want explicit 0", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BackoffFactor != 3 || cfg.Retry.InitialDelay != 0.5 {
		t.Errorf("Retry backoff = %v/%v, want 3/0.5", cfg.Retry.BackoffFactor, cfg.Retry.InitialDelay)
	}
	if len(cfg.Retry.RetryOn) != 1 || cfg.Retry.RetryOn[0] != "EOF" {
		t.Errorf("Retry.RetryOn = %v, want [EOF]", cfg.Retry.RetryOn)
	}

	assertEqualInt(t, "League.PointsForWin", 5, cfg.League.PointsForWin)
	assertEqualInt(t, "League.PointsForSecond", 1, cfg.League.PointsForSecond)
	assertEqualInt(t, "League.FormWindow", 3, cfg.League.FormWindow)
	assertEqualInt(t, "League.MinParticipations", 1, cfg.League.MinParticipations)
	assertEqualInt(t, "League.TeamSlots", 2, cfg.League.TeamSlots)
	assertEqualInt(t, "League.VoterSlots", 11, cfg.League.VoterSlots)

	assertEqualInt(t, "Roster.MinProducers", 2, cfg.Roster.MinProducers)
	assertBoolPtr(t, "Roster.RequireOddEvaluators", false, cfg.Roster.RequireOddEvaluators)

	assertEqualInt(t, "len(Criteria)", 1, len(cfg.Criteria))
	assertEqual(t, "ModelFallbacks[gpt-4.1]", "gpt-4o-mini", cfg.ModelFallbacks["gpt-4.1"])
	assertEqual(t, "ModelFallbacks[o3]", "gpt-4o", cfg.ModelFallbacks["o3"])

	assertEqualInt(t, "len(Producers)", 1, len(cfg.Producers))
	assertEqual(t, "Producers[0].Kind", "static", cfg.Producers[0].Kind)
	if cfg.Producers[0].Params["title"] != "Fixed" {
		t.Errorf("Producers[0].Params = %v", cfg.Producers[0].Params)
	}
	active := cfg.ActiveEvaluators()
	assertEqualInt(t, "len(ActiveEvaluators)", 1, len(active))
	assertEqual(t, "ActiveEvaluators[0]", "Critic", active[0].Name)

	assertEqualInt(t, "len(Hooks.BeforeRound)", 1, len(cfg.Hooks.BeforeRound))
	assertBoolPtr(t, "Cache.Enabled", true, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".cache", cfg.Cache.Dir)
	assertEqual(t, "Storage.BlobContainer", "runs", cfg.Storage.BlobContainer)
	assertEqual(t, "Storage.MetricsFile", "forge.prom", cfg.Storage.MetricsFile)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".forge.yaml", `
defaults:
  engine: mock
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.Model", "gpt-4o", cfg.Defaults.Model)
	assertEqual(t, "Paths.Output", "forge/", cfg.Paths.Output)
	assertBoolPtr(t, "Retry.Enabled", true, cfg.Retry.Enabled)
	assertEqualInt(t, "len(Producers)", 5, len(cfg.Producers))
	assertEqualInt(t, "len(ActiveProducers)", 5, len(cfg.ActiveProducers()))
}

func TestLoad_AgentTemperatureZeroIsKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".forge.yaml", `
producers:
  - name: Cold
    temperature: 0
  - name: Unset
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqualInt(t, "len(Producers)", 2, len(cfg.Producers))
	if got := cfg.Producers[0].Temperature; got == nil || *got != 0 {
		t.Errorf("Producers[0].Temperature = %v, want pointer to 0", got)
	}
	if got := cfg.Producers[1].Temperature; got != nil {
		t.Errorf("Producers[1].Temperature = %v, want nil", *got)
	}
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	defaults := New()
	assertEqual(t, "Defaults.Engine", defaults.Defaults.Engine, cfg.Defaults.Engine)
	assertEqualInt(t, "League.FormWindow", defaults.League.FormWindow, cfg.League.FormWindow)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".forge.yaml", `
defaults:
  engine: [not valid yaml
    this is broken
`)

	if _, err := Load(dir); err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".forge.yaml", `
defaults:
  engine: found-it
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Engine", "found-it", cfg.Defaults.Engine)
	assertEqual(t, "Defaults.Model", "gpt-4o", cfg.Defaults.Model)
}

func TestNew_ReturnsIndependentCopies(t *testing.T) {
	a := New()
	b := New()
	a.ModelFallbacks["x"] = "y"
	a.Producers[0].Name = "changed"

	if _, ok := b.ModelFallbacks["x"]; ok {
		t.Error("ModelFallbacks shared between New() results")
	}
	assertEqual(t, "Producers[0].Name", "Cosmic Storytellers", b.Producers[0].Name)
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}

// Package projectconfig provides the ProjectConfig struct and loader for
// .forge.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/forge/internal/hooks"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".forge.yaml"

// Default values for project configuration. These are the single source of
// truth: New() references them and no other code should duplicate them.
const (
	DefaultOutputDir  = "forge/"
	DefaultLeagueFile = "league_tables.json"
	DefaultCacheDir   = ".forge-cache"

	DefaultEngine               = "copilot-sdk"
	DefaultModel                = "gpt-4o"
	DefaultFallbackModel        = "gpt-4o-mini"
	DefaultProducerTemperature  = 0.7
	DefaultEvaluatorTemperature = 0.3
	DefaultTimeout              = 120
	DefaultStrategy             = "standard"
	DefaultAgentKind            = "llm"

	DefaultRetryMaxRetries    = 3
	DefaultRetryBackoffFactor = 2.0
	DefaultRetryInitialDelay  = 1.0

	DefaultPointsForWin      = 3
	DefaultPointsForSecond   = 1
	DefaultConsensusBonus    = 1
	DefaultFormWindow        = 5
	DefaultMinParticipations = 3
	DefaultFairnessThreshold = 0.6
	DefaultTeamSlots         = 5
	DefaultVoterSlots        = 11

	DefaultMinProducers  = 3
	DefaultMaxProducers  = 10
	DefaultMinEvaluators = 3
	DefaultMaxEvaluators = 15
)

// PathsConfig holds output locations.
type PathsConfig struct {
	Output string `yaml:"output,omitempty"`
	League string `yaml:"league,omitempty"`
}

// DefaultsConfig holds default execution parameters.
type DefaultsConfig struct {
	Engine               string  `yaml:"engine,omitempty"`
	Model                string  `yaml:"model,omitempty"`
	FallbackModel        string  `yaml:"fallback_model,omitempty"`
	ProducerTemperature  float64 `yaml:"producer_temperature,omitempty"`
	EvaluatorTemperature float64 `yaml:"evaluator_temperature,omitempty"`
	Timeout              int     `yaml:"timeout,omitempty"`
	Strategy             string  `yaml:"strategy,omitempty"`
	Verbose              *bool   `yaml:"verbose,omitempty"`
}

// RetryConfig holds the transient-failure retry policy. Delays are seconds.
type RetryConfig struct {
	Enabled       *bool    `yaml:"enabled,omitempty"`
	MaxRetries    *int     `yaml:"max_retries,omitempty"`
	BackoffFactor float64  `yaml:"backoff_factor,omitempty"`
	InitialDelay  float64  `yaml:"initial_delay,omitempty"`
	RetryOn       []string `yaml:"retry_on,omitempty"`
}

// LeagueConfig holds scoring rules, table settings and bias thresholds.
type LeagueConfig struct {
	PointsForWin      int     `yaml:"points_for_win,omitempty"`
	PointsForSecond   int     `yaml:"points_for_second,omitempty"`
	ConsensusBonus    int     `yaml:"consensus_bonus,omitempty"`
	FormWindow        int     `yaml:"form_window,omitempty"`
	MinParticipations int     `yaml:"min_participations,omitempty"`
	FairnessThreshold float64 `yaml:"fairness_threshold,omitempty"`
	TeamSlots         int     `yaml:"active_team_slots,omitempty"`
	VoterSlots        int     `yaml:"active_voter_slots,omitempty"`
}

// RosterConfig bounds how many agents take part in a round.
type RosterConfig struct {
	MinProducers         int   `yaml:"min_producers,omitempty"`
	MaxProducers         int   `yaml:"max_producers,omitempty"`
	MinEvaluators        int   `yaml:"min_evaluators,omitempty"`
	MaxEvaluators        int   `yaml:"max_evaluators,omitempty"`
	RequireOddEvaluators *bool `yaml:"require_odd_evaluators,omitempty"`
}

// CriterionConfig is one scoring criterion shown to evaluators.
type CriterionConfig struct {
	Name        string  `yaml:"name"`
	Weight      float64 `yaml:"weight,omitempty"`
	Description string  `yaml:"description,omitempty"`
}

// AgentConfig declares one producer or evaluator. Kind selects the factory
// in the agent registry; Params are decoded by that factory. A nil
// Temperature takes the role default; 0 is a valid setting.
type AgentConfig struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind,omitempty"`
	Model       string         `yaml:"model,omitempty"`
	Temperature *float64       `yaml:"temperature,omitempty"`
	Direction   string         `yaml:"direction,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Active      *bool          `yaml:"active,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// IsActive reports whether the agent takes part in rounds. Agents are active
// unless explicitly disabled.
func (a AgentConfig) IsActive() bool {
	return a.Active == nil || *a.Active
}

// CacheConfig holds candidate cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// StorageConfig holds optional export targets for run artifacts and metrics.
type StorageConfig struct {
	BlobAccountURL string `yaml:"blob_account_url,omitempty"`
	BlobContainer  string `yaml:"blob_container,omitempty"`
	BlobPrefix     string `yaml:"blob_prefix,omitempty"`
	MetricsFile    string `yaml:"metrics_file,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .forge.yaml.
type ProjectConfig struct {
	Paths          PathsConfig       `yaml:"paths,omitempty"`
	Defaults       DefaultsConfig    `yaml:"defaults,omitempty"`
	Retry          RetryConfig       `yaml:"retry,omitempty"`
	League         LeagueConfig      `yaml:"league,omitempty"`
	Roster         RosterConfig      `yaml:"roster,omitempty"`
	Criteria       []CriterionConfig `yaml:"criteria,omitempty"`
	ModelFallbacks map[string]string `yaml:"model_fallbacks,omitempty"`
	Producers      []AgentConfig     `yaml:"producers,omitempty"`
	Evaluators     []AgentConfig     `yaml:"evaluators,omitempty"`
	Hooks          hooks.HooksConfig `yaml:"hooks,omitempty"`
	Cache          CacheConfig       `yaml:"cache,omitempty"`
	Storage        StorageConfig     `yaml:"storage,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Output: DefaultOutputDir,
			League: DefaultLeagueFile,
		},
		Defaults: DefaultsConfig{
			Engine:               DefaultEngine,
			Model:                DefaultModel,
			FallbackModel:        DefaultFallbackModel,
			ProducerTemperature:  DefaultProducerTemperature,
			EvaluatorTemperature: DefaultEvaluatorTemperature,
			Timeout:              DefaultTimeout,
			Strategy:             DefaultStrategy,
			Verbose:              boolPtr(false),
		},
		Retry: RetryConfig{
			Enabled:       boolPtr(true),
			MaxRetries:    intPtr(DefaultRetryMaxRetries),
			BackoffFactor: DefaultRetryBackoffFactor,
			InitialDelay:  DefaultRetryInitialDelay,
		},
		League: LeagueConfig{
			PointsForWin:      DefaultPointsForWin,
			PointsForSecond:   DefaultPointsForSecond,
			ConsensusBonus:    DefaultConsensusBonus,
			FormWindow:        DefaultFormWindow,
			MinParticipations: DefaultMinParticipations,
			FairnessThreshold: DefaultFairnessThreshold,
			TeamSlots:         DefaultTeamSlots,
			VoterSlots:        DefaultVoterSlots,
		},
		Roster: RosterConfig{
			MinProducers:         DefaultMinProducers,
			MaxProducers:         DefaultMaxProducers,
			MinEvaluators:        DefaultMinEvaluators,
			MaxEvaluators:        DefaultMaxEvaluators,
			RequireOddEvaluators: boolPtr(true),
		},
		Criteria:       defaultCriteria(),
		ModelFallbacks: defaultModelFallbacks(),
		Producers:      defaultProducers(),
		Evaluators:     defaultEvaluators(),
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds .forge.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .forge.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst. Lists replace the
// defaults wholesale; model fallbacks are merged key by key.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Output != "" {
		dst.Paths.Output = src.Paths.Output
	}
	if src.Paths.League != "" {
		dst.Paths.League = src.Paths.League
	}

	// Defaults
	if src.Defaults.Engine != "" {
		dst.Defaults.Engine = src.Defaults.Engine
	}
	if src.Defaults.Model != "" {
		dst.Defaults.Model = src.Defaults.Model
	}
	if src.Defaults.FallbackModel != "" {
		dst.Defaults.FallbackModel = src.Defaults.FallbackModel
	}
	if src.Defaults.ProducerTemperature != 0 {
		dst.Defaults.ProducerTemperature = src.Defaults.ProducerTemperature
	}
	if src.Defaults.EvaluatorTemperature != 0 {
		dst.Defaults.EvaluatorTemperature = src.Defaults.EvaluatorTemperature
	}
	if src.Defaults.Timeout != 0 {
		dst.Defaults.Timeout = src.Defaults.Timeout
	}
	if src.Defaults.Strategy != "" {
		dst.Defaults.Strategy = src.Defaults.Strategy
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}

	// Retry
	if src.Retry.Enabled != nil {
		dst.Retry.Enabled = src.Retry.Enabled
	}
	if src.Retry.MaxRetries != nil {
		dst.Retry.MaxRetries = src.Retry.MaxRetries
	}
	if src.Retry.BackoffFactor != 0 {
		dst.Retry.BackoffFactor = src.Retry.BackoffFactor
	}
	if src.Retry.InitialDelay != 0 {
		dst.Retry.InitialDelay = src.Retry.InitialDelay
	}
	if len(src.Retry.RetryOn) > 0 {
		dst.Retry.RetryOn = src.Retry.RetryOn
	}

	// League
	if src.League.PointsForWin != 0 {
		dst.League.PointsForWin = src.League.PointsForWin
	}
	if src.League.PointsForSecond != 0 {
		dst.League.PointsForSecond = src.League.PointsForSecond
	}
	if src.League.ConsensusBonus != 0 {
		dst.League.ConsensusBonus = src.League.ConsensusBonus
	}
	if src.League.FormWindow != 0 {
		dst.League.FormWindow = src.League.FormWindow
	}
	if src.League.MinParticipations != 0 {
		dst.League.MinParticipations = src.League.MinParticipations
	}
	if src.League.FairnessThreshold != 0 {
		dst.League.FairnessThreshold = src.League.FairnessThreshold
	}
	if src.League.TeamSlots != 0 {
		dst.League.TeamSlots = src.League.TeamSlots
	}
	if src.League.VoterSlots != 0 {
		dst.League.VoterSlots = src.League.VoterSlots
	}

	// Roster
	if src.Roster.MinProducers != 0 {
		dst.Roster.MinProducers = src.Roster.MinProducers
	}
	if src.Roster.MaxProducers != 0 {
		dst.Roster.MaxProducers = src.Roster.MaxProducers
	}
	if src.Roster.MinEvaluators != 0 {
		dst.Roster.MinEvaluators = src.Roster.MinEvaluators
	}
	if src.Roster.MaxEvaluators != 0 {
		dst.Roster.MaxEvaluators = src.Roster.MaxEvaluators
	}
	if src.Roster.RequireOddEvaluators != nil {
		dst.Roster.RequireOddEvaluators = src.Roster.RequireOddEvaluators
	}

	// Agents and criteria
	if len(src.Criteria) > 0 {
		dst.Criteria = src.Criteria
	}
	for model, fallback := range src.ModelFallbacks {
		dst.ModelFallbacks[model] = fallback
	}
	if len(src.Producers) > 0 {
		dst.Producers = src.Producers
	}
	if len(src.Evaluators) > 0 {
		dst.Evaluators = src.Evaluators
	}

	// Hooks
	if len(src.Hooks.BeforeRound) > 0 {
		dst.Hooks.BeforeRound = src.Hooks.BeforeRound
	}
	if len(src.Hooks.AfterRound) > 0 {
		dst.Hooks.AfterRound = src.Hooks.AfterRound
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Storage
	if src.Storage.BlobAccountURL != "" {
		dst.Storage.BlobAccountURL = src.Storage.BlobAccountURL
	}
	if src.Storage.BlobContainer != "" {
		dst.Storage.BlobContainer = src.Storage.BlobContainer
	}
	if src.Storage.BlobPrefix != "" {
		dst.Storage.BlobPrefix = src.Storage.BlobPrefix
	}
	if src.Storage.MetricsFile != "" {
		dst.Storage.MetricsFile = src.Storage.MetricsFile
	}
}

// ActiveProducers returns the producers that take part in rounds.
func (c *ProjectConfig) ActiveProducers() []AgentConfig {
	return active(c.Producers)
}

// ActiveEvaluators returns the evaluators that take part in rounds.
func (c *ProjectConfig) ActiveEvaluators() []AgentConfig {
	return active(c.Evaluators)
}

func active(agents []AgentConfig) []AgentConfig {
	out := make([]AgentConfig, 0, len(agents))
	for _, a := range agents {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(n int) *int {
	return &n
}

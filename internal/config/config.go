// Package config handles configuration loading and management for agentlab.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for agentlab.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Research  ResearchConfig  `mapstructure:"research"`
	Phases    PhasesConfig    `mapstructure:"phases"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// DefaultsConfig holds default values for research sessions.
type DefaultsConfig struct {
	// Model is the default model for all agents.
	Model string `mapstructure:"model"`
	// CopilotMode pauses for human feedback after each phase.
	CopilotMode bool `mapstructure:"copilot_mode"`
	// NumPapersLitReview is how many papers the literature review collects.
	NumPapersLitReview int `mapstructure:"num_papers_lit_review"`
	// SolverSteps bounds the experiment solver iterations per phase.
	SolverSteps int `mapstructure:"solver_steps"`
	// PaperSteps bounds the report solver iterations per section.
	PaperSteps int `mapstructure:"paper_steps"`
}

// ResearchConfig holds research output locations.
type ResearchConfig struct {
	// Dir is where phase artifacts (readme, report, code) are written.
	Dir string `mapstructure:"dir"`
	// NotesFile is the human-in-the-loop notes file watched during runs.
	NotesFile string `mapstructure:"notes_file"`
	// StateDir is where workflow snapshots are saved.
	StateDir string `mapstructure:"state_dir"`
}

// PhasesConfig toggles individual workflow phases.
type PhasesConfig struct {
	LiteratureReview      bool `mapstructure:"literature_review"`
	PlanFormulation       bool `mapstructure:"plan_formulation"`
	DataPreparation       bool `mapstructure:"data_preparation"`
	RunningExperiments    bool `mapstructure:"running_experiments"`
	ResultsInterpretation bool `mapstructure:"results_interpretation"`
	ReportWriting         bool `mapstructure:"report_writing"`
	ReportRefinement      bool `mapstructure:"report_refinement"`
}

// TimeoutsConfig holds timeout settings for external operations.
type TimeoutsConfig struct {
	// Execute bounds a single code execution.
	Execute time.Duration `mapstructure:"execute"`
	// Compile bounds a LaTeX compilation.
	Compile time.Duration `mapstructure:"compile"`
	// Search bounds a single literature search request.
	Search time.Duration `mapstructure:"search"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.agentlab.yaml in current directory or parent)
// 3. User config (~/.config/agentlab/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("defaults.model", cfg.Defaults.Model)
	v.Set("defaults.copilot_mode", cfg.Defaults.CopilotMode)
	v.Set("defaults.num_papers_lit_review", cfg.Defaults.NumPapersLitReview)
	v.Set("defaults.solver_steps", cfg.Defaults.SolverSteps)
	v.Set("defaults.paper_steps", cfg.Defaults.PaperSteps)
	v.Set("research.dir", cfg.Research.Dir)
	v.Set("research.notes_file", cfg.Research.NotesFile)
	v.Set("research.state_dir", cfg.Research.StateDir)
	v.Set("phases.literature_review", cfg.Phases.LiteratureReview)
	v.Set("phases.plan_formulation", cfg.Phases.PlanFormulation)
	v.Set("phases.data_preparation", cfg.Phases.DataPreparation)
	v.Set("phases.running_experiments", cfg.Phases.RunningExperiments)
	v.Set("phases.results_interpretation", cfg.Phases.ResultsInterpretation)
	v.Set("phases.report_writing", cfg.Phases.ReportWriting)
	v.Set("phases.report_refinement", cfg.Phases.ReportRefinement)
	v.Set("timeouts.execute", cfg.Timeouts.Execute.String())
	v.Set("timeouts.compile", cfg.Timeouts.Compile.String())
	v.Set("timeouts.search", cfg.Timeouts.Search.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("defaults.model", "claude-sonnet-4-20250514")
	v.SetDefault("defaults.copilot_mode", false)
	v.SetDefault("defaults.num_papers_lit_review", 5)
	v.SetDefault("defaults.solver_steps", 6)
	v.SetDefault("defaults.paper_steps", 4)

	v.SetDefault("research.dir", "research_dir")
	v.SetDefault("research.notes_file", "notes.yaml")
	v.SetDefault("research.state_dir", "state_saves")

	v.SetDefault("phases.literature_review", true)
	v.SetDefault("phases.plan_formulation", true)
	v.SetDefault("phases.data_preparation", true)
	v.SetDefault("phases.running_experiments", true)
	v.SetDefault("phases.results_interpretation", true)
	v.SetDefault("phases.report_writing", true)
	v.SetDefault("phases.report_refinement", true)

	v.SetDefault("timeouts.execute", "2m")
	v.SetDefault("timeouts.compile", "1m")
	v.SetDefault("timeouts.search", "30s")
}

// getUserConfigDir returns the XDG config directory for agentlab.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentlab")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentlab")
	}
	return filepath.Join(home, ".config", "agentlab")
}

// findProjectConfig searches for .agentlab.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".agentlab.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Model:              "claude-sonnet-4-20250514",
			NumPapersLitReview: 5,
			SolverSteps:        6,
			PaperSteps:         4,
		},
		Research: ResearchConfig{
			Dir:       "research_dir",
			NotesFile: "notes.yaml",
			StateDir:  "state_saves",
		},
		Phases: PhasesConfig{
			LiteratureReview:      true,
			PlanFormulation:       true,
			DataPreparation:       true,
			RunningExperiments:    true,
			ResultsInterpretation: true,
			ReportWriting:         true,
			ReportRefinement:      true,
		},
		Timeouts: TimeoutsConfig{
			Execute: 2 * time.Minute,
			Compile: time.Minute,
			Search:  30 * time.Second,
		},
	}
}

// Enabled reports whether the given workflow phase is turned on.
func (p PhasesConfig) Enabled(phase string) bool {
	switch phase {
	case "literature-review":
		return p.LiteratureReview
	case "plan-formulation":
		return p.PlanFormulation
	case "data-preparation":
		return p.DataPreparation
	case "running-experiments":
		return p.RunningExperiments
	case "results-interpretation":
		return p.ResultsInterpretation
	case "report-writing":
		return p.ReportWriting
	case "report-refinement":
		return p.ReportRefinement
	default:
		return false
	}
}

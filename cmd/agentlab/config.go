package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlaboratory/agentlab/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify agentlab configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/agentlab/config.yaml
Project-specific overrides can be placed in .agentlab.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("defaults.model: %s\n", cfg.Defaults.Model)
	fmt.Printf("defaults.copilot_mode: %t\n", cfg.Defaults.CopilotMode)
	fmt.Printf("defaults.num_papers_lit_review: %d\n", cfg.Defaults.NumPapersLitReview)
	fmt.Printf("defaults.solver_steps: %d\n", cfg.Defaults.SolverSteps)
	fmt.Printf("defaults.paper_steps: %d\n", cfg.Defaults.PaperSteps)
	fmt.Printf("research.dir: %s\n", cfg.Research.Dir)
	fmt.Printf("research.notes_file: %s\n", cfg.Research.NotesFile)
	fmt.Printf("research.state_dir: %s\n", cfg.Research.StateDir)
	fmt.Printf("timeouts.execute: %s\n", cfg.Timeouts.Execute)
	fmt.Printf("timeouts.compile: %s\n", cfg.Timeouts.Compile)
	fmt.Printf("timeouts.search: %s\n", cfg.Timeouts.Search)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s to %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "defaults.model":
		return cfg.Defaults.Model, nil
	case "defaults.copilot_mode":
		return strconv.FormatBool(cfg.Defaults.CopilotMode), nil
	case "defaults.num_papers_lit_review":
		return strconv.Itoa(cfg.Defaults.NumPapersLitReview), nil
	case "defaults.solver_steps":
		return strconv.Itoa(cfg.Defaults.SolverSteps), nil
	case "defaults.paper_steps":
		return strconv.Itoa(cfg.Defaults.PaperSteps), nil
	case "research.dir":
		return cfg.Research.Dir, nil
	case "research.notes_file":
		return cfg.Research.NotesFile, nil
	case "research.state_dir":
		return cfg.Research.StateDir, nil
	case "timeouts.execute":
		return cfg.Timeouts.Execute.String(), nil
	case "timeouts.compile":
		return cfg.Timeouts.Compile.String(), nil
	case "timeouts.search":
		return cfg.Timeouts.Search.String(), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Anthropic.UseBedrock = b
	case "defaults.model":
		cfg.Defaults.Model = value
	case "defaults.copilot_mode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Defaults.CopilotMode = b
	case "defaults.num_papers_lit_review":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", value)
		}
		cfg.Defaults.NumPapersLitReview = n
	case "defaults.solver_steps":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", value)
		}
		cfg.Defaults.SolverSteps = n
	case "defaults.paper_steps":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", value)
		}
		cfg.Defaults.PaperSteps = n
	case "research.dir":
		cfg.Research.Dir = value
	case "research.notes_file":
		cfg.Research.NotesFile = value
	case "research.state_dir":
		cfg.Research.StateDir = value
	case "timeouts.execute", "timeouts.compile", "timeouts.search":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		switch key {
		case "timeouts.execute":
			cfg.Timeouts.Execute = d
		case "timeouts.compile":
			cfg.Timeouts.Compile = d
		case "timeouts.search":
			cfg.Timeouts.Search = d
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

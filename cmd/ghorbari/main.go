package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ghorbari/ghorbari/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:8080"

var (
	apiClient *client.Client
	flagURL   string
	flagToken string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("ghorbari version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("ghorbari version %s-dev", version)
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "ghorbari",
		Short:   "GhorBari CLI — property marketplace operations",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagToken != "" {
				opts = append(opts, client.WithToken(flagToken))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "GhorBari server URL (env: GHORBARI_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (env: GHORBARI_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newPropertyCmd())
	rootCmd.AddCommand(newApplicationCmd())
	rootCmd.AddCommand(newDealCmd())
	rootCmd.AddCommand(newAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("GHORBARI_URL"); v != "" {
			flagURL = v
		}
	}
	if flagToken == "" {
		flagToken = os.Getenv("GHORBARI_TOKEN")
	}

	// Try config file for any remaining defaults.
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	cfgPath := filepath.Join(home, ".ghorbari", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return
	}
	var cfg profilesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	profileName := cfg.ActiveProfile
	if profileName == "" {
		profileName = "default"
	}
	p, ok := cfg.Profiles[profileName]
	if !ok {
		return
	}
	if flagURL == defaultURL && p.URL != "" {
		flagURL = p.URL
	}
	if flagToken == "" && p.Token != "" {
		flagToken = p.Token
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}

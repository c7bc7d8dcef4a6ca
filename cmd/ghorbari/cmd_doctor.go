package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, and auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nGhorBari Doctor")
	fmt.Println("===============")

	var results []checkResult

	// 1. Config file.
	cfgPath, cfg, cfgErr := doctorLoadConfig()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath,
			Hint:   "Run: ghorbari init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	// Resolve URL and token from flags, env, config (same priority as resolveConfig).
	url, token := doctorResolveSettings(cfg)

	// 2. Server URL.
	if url == "" {
		results = append(results, checkResult{
			Name: "Server URL", Passed: false,
			Hint: "Set --url, GHORBARI_URL, or run ghorbari init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Server URL", Passed: true, Detail: url,
		})
	}

	// 3. Token.
	if token == "" {
		results = append(results, checkResult{
			Name: "Token", Passed: false,
			Hint: "Set --token, GHORBARI_TOKEN, or run ghorbari init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Token", Passed: true, Detail: "configured",
		})
	}

	// 4. Server reachable.
	if url != "" {
		ver, err := doctorCheckHealth(url)
		if err != nil {
			results = append(results, checkResult{
				Name: "Server reachable", Passed: false,
				Detail: url,
				Hint:   fmt.Sprintf("Is the GhorBari server running?\n   Error: %v", err),
			})
		} else {
			detail := url
			if ver != "" {
				detail = fmt.Sprintf("v%s", ver)
			}
			results = append(results, checkResult{
				Name: "Server reachable", Passed: true, Detail: detail,
			})
		}
	}

	// 5. Authentication.
	if url != "" && token != "" {
		if err := doctorCheckAuth(url, token); err != nil {
			results = append(results, checkResult{
				Name: "Authentication", Passed: false,
				Hint: fmt.Sprintf("Check your token. Error: %v", err),
			})
		} else {
			results = append(results, checkResult{
				Name: "Authentication", Passed: true, Detail: "valid",
			})
		}
	}

	// Print results.
	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.Passed {
			if r.Detail != "" {
				fmt.Printf("✅ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("✅ %s\n", r.Name)
			}
		} else {
			allPassed = false
			if r.Detail != "" {
				fmt.Printf("❌ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("❌ %s\n", r.Name)
			}
			if r.Hint != "" {
				fmt.Printf("   Hint: %s\n", r.Hint)
			}
		}
	}

	fmt.Println()
	if allPassed {
		fmt.Println("✅ All checks passed!")
	} else {
		fmt.Println("❌ Some checks failed.")
		return fmt.Errorf("doctor found issues")
	}

	return nil
}

func doctorLoadConfig() (string, *profilesFile, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil, err
	}
	cfgPath := filepath.Join(home, ".ghorbari", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfgPath, nil, err
	}
	var cfg profilesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfgPath, nil, err
	}
	return cfgPath, &cfg, nil
}

func doctorResolveSettings(cfg *profilesFile) (url, token string) {
	// Flags first (use the global flag values).
	url = flagURL
	token = flagToken

	// Env overrides defaults.
	if url == defaultURL {
		if v := os.Getenv("GHORBARI_URL"); v != "" {
			url = v
		}
	}
	if token == "" {
		token = os.Getenv("GHORBARI_TOKEN")
	}

	// Config file fills remaining gaps.
	if cfg != nil {
		profile := cfg.ActiveProfile
		if profile == "" {
			profile = "default"
		}
		if p, ok := cfg.Profiles[profile]; ok {
			if url == defaultURL && p.URL != "" {
				url = p.URL
			}
			if token == "" && p.Token != "" {
				token = p.Token
			}
		}
	}

	return url, token
}

func doctorCheckHealth(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/v1/health", nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var health struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return "", err
	}
	return health.Version, nil
}

func doctorCheckAuth(url, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/v1/applications", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse.

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("authentication failed (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

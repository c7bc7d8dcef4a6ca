package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestRoot builds a root command tree identical to main() but with
// PersistentPreRun stubbed out so the API client is never initialised.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "ghorbari",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client initialisation in tests.
		},
	}
	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "")

	root.AddCommand(newPropertyCmd())
	root.AddCommand(newApplicationCmd())
	root.AddCommand(newDealCmd())
	return root
}

func TestPropertyArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "get requires an id",
			args: []string{"property", "get"},
		},
		{
			name: "create requires a title",
			args: []string{"property", "create"},
		},
		{
			name: "create rejects extra positional args",
			args: []string{"property", "create", "Flat", "extra"},
		},
		{
			name: "moderate requires id and decision",
			args: []string{"property", "moderate", "p1"},
		},
		{
			name: "reopen requires an id",
			args: []string{"property", "reopen"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestRoot()
			if err := executeArgs(t, root, tc.args...); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestApplicationArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "create requires a property id",
			args: []string{"application", "create"},
		},
		{
			name: "accept requires an id",
			args: []string{"application", "accept"},
		},
		{
			name: "counter rejects extra positional args",
			args: []string{"application", "counter", "a1", "extra"},
		},
		{
			name: "withdraw requires an id",
			args: []string{"application", "withdraw"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestRoot()
			if err := executeArgs(t, root, tc.args...); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestDealArgValidation(t *testing.T) {
	root := newTestRoot()
	if err := executeArgs(t, root, "deal", "complete"); err == nil {
		t.Error("deal complete without property id should fail")
	}

	root = newTestRoot()
	if err := executeArgs(t, root, "deal", "cancel", "p1", "extra"); err == nil {
		t.Error("deal cancel with extra arg should fail")
	}
}

func TestAppAliasResolves(t *testing.T) {
	root := newTestRoot()
	// The alias must route to the application command tree; the missing id
	// error proves the subcommand was found.
	if err := executeArgs(t, root, "app", "get"); err == nil {
		t.Error("app get without id should fail arg validation")
	}
}

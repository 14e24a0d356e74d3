// Package cli implements the zshscan command tree: standalone consumers of
// the scanner library that drive it the way an embedding parser would.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zshscan/zshscan/internal/config"
	"github.com/zshscan/zshscan/internal/suggest"
	"github.com/zshscan/zshscan/runtime/scanner"
)

// NewRootCmd builds the zshscan root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "zshscan",
		Short:         "Drive the zsh external scanner over files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a .zshscan.json config file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg == nil {
			return nil
		}
		if cfg.Debug {
			scanner.EnableDebugLogging()
		}
		if len(cfg.EnabledCommands) > 0 && cmd.Name() != "validate-config" {
			if !contains(cfg.EnabledCommands, cmd.Name()) {
				return fmt.Errorf("subcommand %q is disabled by config", cmd.Name())
			}
		}
		return nil
	}

	root.AddCommand(newTokensCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newValidateConfigCmd())
	return root
}

// Execute runs the CLI and returns the process exit code. Unknown
// subcommands get a fuzzy "did you mean" hint after the error message.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if name, ok := unknownCommandName(err); ok {
			var candidates []string
			for _, c := range root.Commands() {
				candidates = append(candidates, c.Name())
			}
			if nearest := suggest.Nearest(name, candidates); nearest != "" {
				fmt.Fprintf(os.Stderr, "Did you mean %q?\n", nearest)
			}
		}
		return 1
	}
	return 0
}

// loadConfig resolves the effective config: an explicit --config path must
// exist; otherwise .zshscan.json in the working directory is used when
// present, and no config at all is fine.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(".zshscan.json"); err != nil {
		return nil, nil
	}
	return config.Load(".zshscan.json")
}

func unknownCommandName(err error) (string, bool) {
	msg := err.Error()
	if !strings.HasPrefix(msg, `unknown command "`) {
		return "", false
	}
	rest := strings.TrimPrefix(msg, `unknown command "`)
	if i := strings.IndexByte(rest, '"'); i > 0 {
		return rest[:i], true
	}
	return "", false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

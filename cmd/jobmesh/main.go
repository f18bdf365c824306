// jobmesh runs either role of the distributed job-execution broker from a
// single binary: "server" routes user work to compute clients, "client"
// executes scripts on behalf of upstream servers. Both roles share the same
// persisted data model and background-task skeleton; only the task loops
// and HTTP surface they register differ.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobmesh",
		Short: "jobmesh — distributed job-execution broker",
		Long: `jobmesh runs either the server role (routes user work to compute
clients) or the client role (executes scripts for upstream servers) from a
single binary, sharing one persisted data model and background-task
skeleton between them.`,
	}

	root.AddCommand(newServerCmd())
	root.AddCommand(newClientCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jobmesh %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// buildLogger constructs a zap logger whose verbosity is controlled by
// level ("debug", "info", "warn", "error"); unrecognized values default to
// info, matching the production config's own default.
func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

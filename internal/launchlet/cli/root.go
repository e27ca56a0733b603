package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehsaniara/launchlet/pkg/config"
	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
	"github.com/ehsaniara/launchlet/pkg/logger"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "launchlet",
	Short: "Launchlet - batch cluster launcher for distributed training workloads",
	Long: `Launchlet derives the rendezvous parameters a distributed training job
needs from the scheduler allocation (coordination address and port, world
size), publishes them into the workload environment, and supervises the
spawned workload so that cluster termination signals reach it and its exit
status reaches the scheduler.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version must print even with a broken config on the node
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		var path string
		cfg, path, err = config.LoadConfigFrom(configPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		if parsed, err := logger.ParseLevel(level); err == nil {
			logger.SetLevel(parsed)
		} else {
			return launcherrors.WrapConfigError("logging.level",
				fmt.Errorf("%w: %v", launcherrors.ErrInvalidConfig, err))
		}

		logger.Debug("configuration loaded", "path", path)
		return nil
	},
}

// Execute runs the command tree and maps the outcome to the process exit
// code: the workload's own code verbatim, or the distinct launcher failure
// code for launcher-level errors.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return launcherrors.ExitOK
	}

	// A failed workload is not a launcher error; the scheduler log already
	// has the workload's own output, so propagate the code silently.
	var workloadErr *launcherrors.WorkloadError
	if errors.As(err, &workloadErr) {
		return workloadErr.Code
	}

	_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return launcherrors.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to launcher configuration file (searches common locations if not specified)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level override (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(NewLaunchCmd())
	rootCmd.AddCommand(NewEnvCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

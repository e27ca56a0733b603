package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehsaniara/launchlet/internal/launchlet/environment"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// NewEnvCmd creates the env command
func NewEnvCmd() *cobra.Command {
	var extraEnv []string

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Print the derived workload environment without launching",
		Long: `Env runs the same read-derive-publish pipeline as launch and prints the
variables the workload would inherit, one KEY=VALUE per line. Useful for
verifying an allocation from an interactive shell before submitting the
real batch script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(extraEnv)
		},
	}

	envCmd.Flags().StringArrayVarP(&extraEnv, "env", "e", nil,
		"Additional KEY=VALUE for the workload environment (repeatable)")

	return envCmd
}

func runEnv(extraEnv []string) error {
	p := platform.NewPlatform()
	log := logger.WithField("component", "env")

	// No launch id: nothing is spawned, so there is nothing to correlate
	publish, err := buildPublishConfig(p, log, extraEnv, "")
	if err != nil {
		return err
	}

	builder := environment.NewBuilder(p, log)
	for _, entry := range builder.Produced(publish) {
		fmt.Println(entry)
	}

	return nil
}

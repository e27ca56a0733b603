package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ehsaniara/launchlet/internal/launchlet/allocation"
	"github.com/ehsaniara/launchlet/internal/launchlet/environment"
	"github.com/ehsaniara/launchlet/internal/launchlet/rendezvous"
	"github.com/ehsaniara/launchlet/internal/launchlet/supervisor"
	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// NewLaunchCmd creates the launch command
func NewLaunchCmd() *cobra.Command {
	var dryRun bool
	var extraEnv []string

	launchCmd := &cobra.Command{
		Use:   "launch [flags] -- command [args...]",
		Short: "Run a distributed workload under supervision",
		Long: `Launch reads the scheduler allocation, derives the rendezvous parameters
(MASTER_ADDR, MASTER_PORT, WORLD_SIZE), publishes them together with the
configured tuning variables into the workload environment, then spawns the
workload and supervises it until exit.

SIGINT and SIGTERM received by the launcher are forwarded to the workload's
process group, and the launcher only returns once the workload has actually
exited. The launcher's exit code is the workload's exit code.

Example:
  launchlet launch -- python3 train.py --config configs/base.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(args, dryRun, extraEnv)
		},
	}

	addLaunchFlags(launchCmd.Flags(), &dryRun, &extraEnv)

	return launchCmd
}

func addLaunchFlags(fs *pflag.FlagSet, dryRun *bool, extraEnv *[]string) {
	fs.BoolVar(dryRun, "dry-run", false,
		"Derive and print the workload environment without spawning anything")
	fs.StringArrayVarP(extraEnv, "env", "e", nil,
		"Additional KEY=VALUE for the workload environment (repeatable)")
}

func runLaunch(args []string, dryRun bool, extraEnv []string) error {
	p := platform.NewPlatform()
	launchID := uuid.NewString()
	log := logger.WithField("launchID", launchID)

	publish, err := buildPublishConfig(p, log, extraEnv, launchID)
	if err != nil {
		return err
	}

	builder := environment.NewBuilder(p, log)

	if dryRun {
		for _, entry := range builder.Produced(publish) {
			fmt.Println(entry)
		}
		return nil
	}

	env := builder.Build(publish)

	sup := supervisor.New(p, log)
	code, err := sup.Run(context.Background(), &supervisor.Spec{
		Command: args[0],
		Args:    args[1:],
		Env:     env,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return launcherrors.NewWorkloadError(code)
	}
	return nil
}

// buildPublishConfig runs the read-derive pipeline shared by launch and env
func buildPublishConfig(p platform.Platform, log *logger.Logger, extraEnv []string, launchID string) (*environment.PublishConfig, error) {
	reader := allocation.NewReader(p, log)
	allocCtx, err := reader.Read()
	if err != nil {
		return nil, err
	}

	params, err := rendezvous.Derive(allocCtx, rendezvous.PortPolicy{
		Base: cfg.Rendezvous.PortBase,
		Span: cfg.Rendezvous.PortSpan,
	})
	if err != nil {
		return nil, err
	}

	log.Info("rendezvous parameters derived",
		"jobID", allocCtx.JobID,
		"address", params.Address,
		"port", params.Port,
		"worldSize", params.WorldSize)

	tuning := make(map[string]string, len(cfg.Tuning)+len(extraEnv))
	for k, v := range cfg.Tuning {
		tuning[k] = v
	}
	for _, entry := range extraEnv {
		key, val, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, launcherrors.WrapConfigError("env",
				fmt.Errorf("%w: %q is not KEY=VALUE", launcherrors.ErrInvalidConfig, entry))
		}
		tuning[key] = val
	}

	return &environment.PublishConfig{
		Params:   params,
		Tuning:   tuning,
		LaunchID: launchID,
	}, nil
}

package cli

import (
	"errors"
	"testing"

	"github.com/ehsaniara/launchlet/pkg/config"
	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// useTestConfig swaps in the default config the way PersistentPreRunE would
func useTestConfig() func() {
	prev := cfg
	testCfg := config.DefaultConfig
	cfg = &testCfg
	return func() { cfg = prev }
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "launchlet" {
		t.Errorf("root Use = %q, want launchlet", rootCmd.Use)
	}

	expected := []string{"launch", "env", "version"}
	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLaunchCommand_Flags(t *testing.T) {
	cmd := NewLaunchCmd()

	for _, flag := range []string{"dry-run", "env"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("launch command missing --%s flag", flag)
		}
	}

	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("launch should require a workload command")
	}
	if err := cmd.Args(cmd, []string{"python3"}); err != nil {
		t.Errorf("launch rejected a valid command: %v", err)
	}
}

func TestEnvCommand_RejectsArgs(t *testing.T) {
	cmd := NewEnvCmd()
	if err := cmd.Args(cmd, []string{"stray"}); err == nil {
		t.Error("env should reject positional arguments")
	}
}

func TestBuildPublishConfig_OutsideAllocation(t *testing.T) {
	// No scheduler environment present: the pipeline must fail closed
	// before anything is spawned.
	for _, v := range []string{
		"SLURM_JOB_ID", "SLURM_JOBID",
		"SLURM_JOB_NODELIST", "SLURM_NODELIST",
		"SLURM_JOB_NUM_NODES", "SLURM_NNODES",
		"SLURM_NTASKS_PER_NODE", "SLURM_NTASKS",
	} {
		t.Setenv(v, "")
	}
	restore := useTestConfig()
	defer restore()

	_, err := buildPublishConfig(platform.NewPlatform(), logger.New(), nil, "test")
	if !errors.Is(err, launcherrors.ErrMissingAllocationData) {
		t.Errorf("expected ErrMissingAllocationData, got %v", err)
	}
}

func TestBuildPublishConfig_InsideAllocation(t *testing.T) {
	t.Setenv("SLURM_JOB_ID", "123456")
	t.Setenv("SLURM_JOB_NODELIST", "nid[001-002]")
	t.Setenv("SLURM_JOB_NUM_NODES", "2")
	t.Setenv("SLURM_NTASKS_PER_NODE", "4")
	t.Setenv("SLURM_NTASKS", "")
	restore := useTestConfig()
	defer restore()

	publish, err := buildPublishConfig(platform.NewPlatform(), logger.New(), []string{"EXTRA=1"}, "test")
	if err != nil {
		t.Fatalf("buildPublishConfig returned error: %v", err)
	}

	if publish.Params.Address != "nid001" {
		t.Errorf("expected rendezvous address nid001, got %q", publish.Params.Address)
	}
	if publish.Params.WorldSize != 8 {
		t.Errorf("expected world size 8, got %d", publish.Params.WorldSize)
	}
	if publish.Params.Port != 13456 {
		t.Errorf("expected port 13456, got %d", publish.Params.Port)
	}
	if publish.Tuning["EXTRA"] != "1" {
		t.Errorf("expected extra env in tuning, got %v", publish.Tuning)
	}
}

func TestBuildPublishConfig_BadExtraEnv(t *testing.T) {
	t.Setenv("SLURM_JOB_ID", "123456")
	t.Setenv("SLURM_JOB_NODELIST", "nid001")
	t.Setenv("SLURM_JOB_NUM_NODES", "1")
	t.Setenv("SLURM_NTASKS_PER_NODE", "1")
	restore := useTestConfig()
	defer restore()

	_, err := buildPublishConfig(platform.NewPlatform(), logger.New(), []string{"NOT-A-PAIR"}, "test")
	if !errors.Is(err, launcherrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for malformed --env, got %v", err)
	}
}

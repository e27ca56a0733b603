// Package environment assembles the environment the workload inherits.
// Following the arena/record pattern, it builds one complete env slice and
// hands it to the spawn call once; the launcher's own process environment
// is never mutated, which keeps derivation and publication independently
// testable.
package environment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ehsaniara/launchlet/internal/launchlet/rendezvous"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// Environment variable names the workload reads at startup. These are the
// wire contract with the training processes and must not change.
const (
	EnvMasterAddr = "MASTER_ADDR"
	EnvMasterPort = "MASTER_PORT"
	EnvWorldSize  = "WORLD_SIZE"
	EnvLaunchID   = "LAUNCHLET_LAUNCH_ID"
)

// Builder handles environment construction for the workload spawn
type Builder struct {
	platform platform.Platform
	logger   *logger.Logger
}

// NewBuilder creates a new environment builder
func NewBuilder(p platform.Platform, log *logger.Logger) *Builder {
	return &Builder{
		platform: p,
		logger:   log.WithField("component", "env-builder"),
	}
}

// PublishConfig contains everything that goes into the workload environment
type PublishConfig struct {
	Params   *rendezvous.Parameters
	Tuning   map[string]string // opaque pass-through knobs, not interpreted
	LaunchID string
	BaseEnv  []string // optional base environment, defaults to platform.Environ()
}

// Build merges the base environment with the tuning knobs and the derived
// rendezvous parameters. Each key appears exactly once: existing entries
// are replaced in place, new ones are appended in deterministic order, so
// building twice from the same inputs yields the same environment. The
// rendezvous triple is written last and always wins over a stale inherited
// value.
func (b *Builder) Build(config *PublishConfig) []string {
	base := config.BaseEnv
	if base == nil {
		base = b.platform.Environ()
	}

	overrides := make(map[string]string, len(config.Tuning)+4)
	for k, v := range config.Tuning {
		overrides[k] = v
	}
	overrides[EnvMasterAddr] = config.Params.Address
	overrides[EnvMasterPort] = fmt.Sprintf("%d", config.Params.Port)
	overrides[EnvWorldSize] = fmt.Sprintf("%d", config.Params.WorldSize)
	if config.LaunchID != "" {
		overrides[EnvLaunchID] = config.LaunchID
	}

	env := make([]string, 0, len(base)+len(overrides))
	applied := make(map[string]bool, len(overrides))

	for _, entry := range base {
		key := entry
		if i := strings.IndexByte(entry, '='); i >= 0 {
			key = entry[:i]
		}
		if val, ok := overrides[key]; ok {
			if !applied[key] {
				env = append(env, key+"="+val)
				applied[key] = true
			}
			// duplicate of an overridden key: drop it
			continue
		}
		env = append(env, entry)
	}

	remaining := make([]string, 0, len(overrides))
	for key := range overrides {
		if !applied[key] {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		env = append(env, key+"="+overrides[key])
	}

	b.logger.Debug("workload environment built",
		EnvMasterAddr, config.Params.Address,
		EnvMasterPort, config.Params.Port,
		EnvWorldSize, config.Params.WorldSize,
		"tuningKeys", len(config.Tuning))

	return env
}

// Produced returns just the variables this launcher introduces, in the
// order they would be appended to an empty base. Used by the env command
// to show operators the contract without spawning anything.
func (b *Builder) Produced(config *PublishConfig) []string {
	empty := *config
	empty.BaseEnv = []string{}
	return b.Build(&empty)
}

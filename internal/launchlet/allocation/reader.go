// Package allocation reads the job allocation the external scheduler
// granted this launch: job id, allocated hosts, and process counts. It is
// a pure read of the scheduler-provided environment; nothing is mutated.
package allocation

import (
	"fmt"
	"strconv"

	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
	"github.com/ehsaniara/launchlet/pkg/logger"
	"github.com/ehsaniara/launchlet/pkg/platform"
)

// Scheduler environment variables consumed, with the legacy aliases older
// Slurm versions export.
const (
	EnvJobID           = "SLURM_JOB_ID"
	EnvJobIDLegacy     = "SLURM_JOBID"
	EnvNodeList        = "SLURM_JOB_NODELIST"
	EnvNodeListLegacy  = "SLURM_NODELIST"
	EnvNodeCount       = "SLURM_JOB_NUM_NODES"
	EnvNodeCountLegacy = "SLURM_NNODES"
	EnvTasksPerNode    = "SLURM_NTASKS_PER_NODE"
	EnvTotalTasks      = "SLURM_NTASKS"
)

// Context is the allocation metadata for one launch, immutable once read.
// Hosts is ordered exactly as allocated; the first host is the rendezvous
// host. TotalTasks is zero when the scheduler did not supply one directly.
type Context struct {
	JobID        string
	Hosts        []string
	NodeCount    int
	TasksPerNode int
	TotalTasks   int
}

// Reader extracts the allocation context from the scheduler environment
type Reader struct {
	platform platform.Platform
	logger   *logger.Logger
}

// NewReader creates a new allocation reader
func NewReader(p platform.Platform, log *logger.Logger) *Reader {
	return &Reader{
		platform: p,
		logger:   log.WithField("component", "allocation"),
	}
}

// Read returns the full allocation context or fails. No partial results:
// a single absent or unparseable variable fails the whole read.
func (r *Reader) Read() (*Context, error) {
	jobID := r.getenv(EnvJobID, EnvJobIDLegacy)
	if jobID == "" {
		return nil, launcherrors.NewMissingAllocationError(EnvJobID)
	}

	nodeList := r.getenv(EnvNodeList, EnvNodeListLegacy)
	if nodeList == "" {
		return nil, launcherrors.NewMissingAllocationError(EnvNodeList)
	}
	hosts, err := ExpandNodeList(nodeList)
	if err != nil {
		return nil, launcherrors.WrapAllocationError(EnvNodeList, err)
	}

	nodeCount, err := r.intVar(EnvNodeCount, EnvNodeCountLegacy, launcherrors.ErrInvalidNodeCount)
	if err != nil {
		return nil, err
	}

	tasksPerNode := 0
	totalTasks := 0

	if val := r.platform.Getenv(EnvTasksPerNode); val != "" {
		tasksPerNode, err = parseCount(EnvTasksPerNode, val, launcherrors.ErrInvalidTaskCount)
		if err != nil {
			return nil, err
		}
	}
	if val := r.platform.Getenv(EnvTotalTasks); val != "" {
		totalTasks, err = parseCount(EnvTotalTasks, val, launcherrors.ErrInvalidTaskCount)
		if err != nil {
			return nil, err
		}
	}

	// The two task-count variants: at least one must be present. When both
	// are, the deriver cross-checks them.
	if tasksPerNode == 0 && totalTasks == 0 {
		return nil, launcherrors.NewMissingAllocationError(EnvTasksPerNode)
	}

	ctx := &Context{
		JobID:        jobID,
		Hosts:        hosts,
		NodeCount:    nodeCount,
		TasksPerNode: tasksPerNode,
		TotalTasks:   totalTasks,
	}

	r.logger.Debug("allocation context read",
		"jobID", ctx.JobID,
		"nodes", ctx.NodeCount,
		"tasksPerNode", ctx.TasksPerNode,
		"totalTasks", ctx.TotalTasks,
		"firstHost", ctx.Hosts[0])

	return ctx, nil
}

func (r *Reader) getenv(name, alias string) string {
	if val := r.platform.Getenv(name); val != "" {
		return val
	}
	return r.platform.Getenv(alias)
}

func (r *Reader) intVar(name, alias string, invalid error) (int, error) {
	val := r.getenv(name, alias)
	if val == "" {
		return 0, launcherrors.NewMissingAllocationError(name)
	}
	return parseCount(name, val, invalid)
}

func parseCount(name, val string, invalid error) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, launcherrors.WrapAllocationError(name,
			fmt.Errorf("%w: %q is not an integer", invalid, val))
	}
	return n, nil
}

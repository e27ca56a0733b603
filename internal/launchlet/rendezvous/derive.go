// Package rendezvous derives the coordination parameters the workload's
// processes use to find each other: the rendezvous address, a coordination
// port unique to the job, and the total process count (world size).
//
// Derivation is deliberately pure and deterministic: every allocated host
// runs its own copy of this code against the same allocation context and
// must arrive at identical values without any inter-process negotiation.
package rendezvous

import (
	"fmt"

	"github.com/ehsaniara/launchlet/internal/launchlet/allocation"
	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
)

// portDigits is how many trailing job-id digits feed the port offset
const portDigits = 4

// Parameters is the derived rendezvous triple, exported into the workload
// environment exactly once before spawn and read-only thereafter.
type Parameters struct {
	Port      int
	WorldSize int
	Address   string
}

// PortPolicy bounds the derived coordination port: Base plus an offset in
// [0, Span) computed from the job id. Jobs running concurrently on a shared
// base get distinct ports without negotiating; a given job always gets the
// same one.
type PortPolicy struct {
	Base int
	Span int
}

// Derive computes the rendezvous parameters from the allocation context.
// Identical input always yields identical output.
func Derive(ctx *allocation.Context, policy PortPolicy) (*Parameters, error) {
	if len(ctx.Hosts) == 0 {
		return nil, launcherrors.ErrEmptyHostList
	}
	if ctx.NodeCount <= 0 {
		return nil, fmt.Errorf("%w: %d", launcherrors.ErrInvalidNodeCount, ctx.NodeCount)
	}
	if ctx.TasksPerNode < 0 || (ctx.TasksPerNode == 0 && ctx.TotalTasks <= 0) {
		return nil, fmt.Errorf("%w: tasks per node %d", launcherrors.ErrInvalidTaskCount, ctx.TasksPerNode)
	}
	if ctx.TotalTasks < 0 {
		return nil, fmt.Errorf("%w: total tasks %d", launcherrors.ErrInvalidTaskCount, ctx.TotalTasks)
	}

	size, err := worldSize(ctx)
	if err != nil {
		return nil, err
	}

	return &Parameters{
		Port:      policy.Base + portOffset(ctx.JobID, policy.Span),
		WorldSize: size,
		Address:   ctx.Hosts[0],
	}, nil
}

// worldSize reconciles the two scheduler variants: node count times
// tasks-per-node, or a directly supplied total. When both are present they
// must agree; a mismatch means the allocation itself is misconfigured.
func worldSize(ctx *allocation.Context) (int, error) {
	computed := ctx.NodeCount * ctx.TasksPerNode

	switch {
	case ctx.TasksPerNode == 0:
		return ctx.TotalTasks, nil
	case ctx.TotalTasks == 0:
		return computed, nil
	case ctx.TotalTasks != computed:
		return 0, fmt.Errorf("%w: %d nodes x %d tasks = %d, scheduler says %d total",
			launcherrors.ErrInconsistentAllocation,
			ctx.NodeCount, ctx.TasksPerNode, computed, ctx.TotalTasks)
	default:
		return computed, nil
	}
}

// portOffset reduces the trailing digits of the job id into [0, span).
// Slurm job ids are monotonically assigned integers, so trailing digits
// spread concurrent jobs across the span about as well as a hash would,
// while staying auditable by eye from the job log.
func portOffset(jobID string, span int) int {
	digits := trailingDigits(jobID, portDigits)
	if digits == "" {
		return 0
	}

	offset := 0
	for _, r := range digits {
		offset = offset*10 + int(r-'0')
	}

	return offset % span
}

// trailingDigits returns up to max digits from the end of the digit suffix
// of s ("job_123456" -> "3456" for max 4).
func trailingDigits(s string, max int) string {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if end-start > max {
		start = end - max
	}
	return s[start:end]
}

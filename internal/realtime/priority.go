package realtime

import (
	"time"

	"github.com/synthesiscore/core/pkg/models"
)

// isHighPriority implements the priority rule: a trajectory
// is high priority if at least 2 of 4 conditions hold.
func isHighPriority(traj models.Trajectory, runtime time.Duration) bool {
	conditions := 0
	if len(traj.Steps) >= 5 {
		conditions++
	}
	if trajectoryComplexityScore(traj) > 0.7 {
		conditions++
	}
	if allStepsSucceeded(traj) {
		conditions++
	}
	if runtime < 60*time.Second {
		conditions++
	}
	return conditions >= 2
}

func allStepsSucceeded(traj models.Trajectory) bool {
	if len(traj.Steps) == 0 {
		return false
	}
	for _, s := range traj.Steps {
		if !s.Success {
			return false
		}
	}
	return true
}

// trajectoryComplexityScore is an invented proxy for a "complexity
// score" on a trajectory: it isn't a field on models.Trajectory, so
// this derives one from step count and step success ratio.
func trajectoryComplexityScore(traj models.Trajectory) float64 {
	if len(traj.Steps) == 0 {
		return 0
	}
	stepScore := min(float64(len(traj.Steps))/5.0, 1.0) * 0.6

	succeeded := 0
	for _, s := range traj.Steps {
		if s.Success {
			succeeded++
		}
	}
	successRatio := float64(succeeded) / float64(len(traj.Steps))

	return stepScore + successRatio*0.4
}

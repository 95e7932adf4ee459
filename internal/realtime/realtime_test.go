package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/synthesiscore/core/pkg/models"
)

func TestIsHighPriority_TwoOfFourConditions(t *testing.T) {
	traj := models.Trajectory{
		Success: true,
		Steps: []models.Step{
			{Success: true}, {Success: true}, {Success: true}, {Success: true}, {Success: true},
		},
	}
	if !isHighPriority(traj, 10*time.Second) {
		t.Error("expected high priority: step-count>=5 and runtime<60s both hold")
	}
}

func TestIsHighPriority_OnlyOneCondition(t *testing.T) {
	traj := models.Trajectory{
		Success: true,
		Steps:   []models.Step{{Success: false}},
	}
	if isHighPriority(traj, 10*time.Second) {
		t.Error("expected normal priority: only runtime<60s holds")
	}
}

func TestTrajectoryComplexityScore(t *testing.T) {
	empty := models.Trajectory{}
	if got := trajectoryComplexityScore(empty); got != 0 {
		t.Errorf("empty trajectory score = %v, want 0", got)
	}

	allGood := models.Trajectory{Steps: []models.Step{
		{Success: true}, {Success: true}, {Success: true}, {Success: true}, {Success: true},
	}}
	if got := trajectoryComplexityScore(allGood); got != 1.0 {
		t.Errorf("5-step all-success score = %v, want 1.0", got)
	}
}

func TestExtensionQueue_DrainsPriorityFirst(t *testing.T) {
	q := NewExtensionQueue()
	ctx := context.Background()

	normalReq := Request{ID: "normal-1"}
	priorityReq := Request{ID: "priority-1"}

	if err := q.PutNormal(ctx, normalReq); err != nil {
		t.Fatalf("PutNormal: %v", err)
	}
	if err := q.PutHighPriority(ctx, priorityReq); err != nil {
		t.Fatalf("PutHighPriority: %v", err)
	}

	first, err := q.GetNext(ctx)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if first.ID != "priority-1" {
		t.Errorf("first dequeued = %q, want priority-1", first.ID)
	}

	second, err := q.GetNext(ctx)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if second.ID != "normal-1" {
		t.Errorf("second dequeued = %q, want normal-1", second.ID)
	}
}

func TestExtensionQueue_GetNextRespectsCancellation(t *testing.T) {
	q := NewExtensionQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.GetNext(ctx); err == nil {
		t.Error("expected GetNext to return an error on a cancelled context with an empty queue")
	}
}

package job

import "testing"

func TestFromStepStatus(t *testing.T) {
	tests := []struct {
		step StepStatus
		want Status
	}{
		{StepStatusOk, StatusOk},
		{StepStatusFailed, StatusFailed},
		{StepStatusCancelled, StatusCancelled},
		{StepStatusRunning, StatusRunning},
		{StepStatusPending, StatusPending},
		{StepStatusInitialized, StatusPending},
	}

	for _, tt := range tests {
		if got := FromStepStatus(tt.step); got != tt.want {
			t.Errorf("FromStepStatus(%v) = %v, want %v", tt.step, got, tt.want)
		}
	}
}

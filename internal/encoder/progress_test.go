package encoder

import (
	"testing"

	"prodl/internal/progress"
)

func TestProgressState_UpdateFromLine(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string // Multiple lines to process in sequence
		jobID       string
		durationSec float64
		wantOk      bool
		wantPercent float64
	}{
		{
			name: "progress sequence",
			lines: []string{
				"out_time_ms=30000000", // 30 seconds
				"speed=1.5x",
				"total_size=10485760",
				"progress=continue",
			},
			jobID:       "job1",
			durationSec: 60.0,
			wantOk:      true,
			wantPercent: 50.0,
		},
		{
			name: "out_time_us key",
			lines: []string{
				"out_time_us=15000000",
				"progress=continue",
			},
			jobID:       "job1b",
			durationSec: 60.0,
			wantOk:      true,
			wantPercent: 25.0,
		},
		{
			name: "unknown duration",
			lines: []string{
				"speed=2.0x",
				"total_size=5242880",
				"progress=continue",
			},
			jobID:       "job2",
			durationSec: 0,
			wantOk:      true,
			wantPercent: -1.0,
		},
		{
			name: "completion",
			lines: []string{
				"out_time_ms=59000000",
				"progress=end",
			},
			jobID:       "job3",
			durationSec: 60.0,
			wantOk:      true,
			wantPercent: 100.0,
		},
		{
			name: "overshoot is clamped",
			lines: []string{
				"out_time_ms=90000000",
				"progress=continue",
			},
			jobID:       "job4",
			durationSec: 60.0,
			wantOk:      true,
			wantPercent: 100.0,
		},
		{
			name:        "non-progress line",
			lines:       []string{"frame=100"},
			jobID:       "job5",
			durationSec: 60.0,
			wantOk:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &ProgressState{}
			var u progress.Update
			var ok bool

			for _, line := range tt.lines {
				u, ok = ps.UpdateFromLine(line, tt.jobID, tt.durationSec)
			}

			if ok != tt.wantOk {
				t.Errorf("UpdateFromLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if !tt.wantOk {
				return
			}
			if u.JobID != tt.jobID {
				t.Errorf("UpdateFromLine() JobID = %v, want %v", u.JobID, tt.jobID)
			}
			if u.Stage != progress.StageTranscoding {
				t.Errorf("UpdateFromLine() Stage = %v, want %v", u.Stage, progress.StageTranscoding)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("UpdateFromLine() Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
		})
	}
}

func TestProgressState_StateTracking(t *testing.T) {
	ps := &ProgressState{}

	ps.UpdateFromLine("out_time_ms=15000000", "job1", 60.0)
	if ps.OutTimeUs != 15000000 {
		t.Errorf("OutTimeUs = %v, want 15000000", ps.OutTimeUs)
	}

	ps.UpdateFromLine("speed=1.2x", "job1", 60.0)
	if ps.SpeedStr != "1.2x" {
		t.Errorf("SpeedStr = %v, want '1.2x'", ps.SpeedStr)
	}
	ps.UpdateFromLine("speed=N/A", "job1", 60.0)
	if ps.SpeedStr != "1.2x" {
		t.Errorf("SpeedStr overwritten by N/A: %v", ps.SpeedStr)
	}

	ps.UpdateFromLine("total_size=1048576", "job1", 60.0)
	if ps.TotalSize != 1048576 {
		t.Errorf("TotalSize = %v, want 1048576", ps.TotalSize)
	}
}

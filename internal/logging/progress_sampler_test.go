package logging_test

import (
	"testing"

	"dubline/internal/logging"
)

func TestProgressSamplerEmitsOncePerBucket(t *testing.T) {
	s := logging.NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{-1, false},
		{0, true},
		{10, false},
		{25, true},
		{26, false},
		{20, false},
		{99, true},
		{100, true},
		{140, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *logging.ProgressSampler
	if !s.ShouldLog(3) {
		t.Fatal("nil sampler should always log")
	}
}

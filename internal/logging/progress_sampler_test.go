package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -3} {
		s := NewProgressSampler(size)
		if s.bucketSize != 10 || s.lastBucket != -1 {
			t.Fatalf("NewProgressSampler(%v) = %+v", size, s)
		}
	}
	if s := NewProgressSampler(25); s.bucketSize != 25 {
		t.Fatalf("custom bucket size ignored: %+v", s)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{10, false},
		{24.9, false},
		{25, true},
		{30, false},
		{99, true},
		{100, true},
		{150, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "writing"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerPhaseChangeResetsBuckets(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLog(60, "buffering") {
		t.Fatal("first phase should log")
	}
	if s.ShouldLog(70, "buffering") {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog(0, "writing") {
		t.Fatal("phase change should log")
	}
	if s.ShouldLog(10, " writing ") {
		t.Fatal("phase is compared after trimming")
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(-1, "writing") {
		t.Fatal("phase start should log")
	}
	if s.ShouldLog(-1, "writing") {
		t.Fatal("unknown percent should not log within a phase")
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(-1, "") {
		t.Fatal("nil sampler always logs")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(5, 0); got != -1 {
		t.Fatalf("Percent with unknown total = %v", got)
	}
	if got := Percent(1, 4); got != 25 {
		t.Fatalf("Percent(1, 4) = %v", got)
	}
}

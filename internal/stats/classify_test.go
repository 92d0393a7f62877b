package stats

import (
	"math"
	"math/rand"
	"testing"
)

func TestClassifyRules(t *testing.T) {
	const now int64 = 1_700_000_000
	cases := []struct {
		name    string
		nextTry int64
		want    State
	}{
		{"new", 0, StateNew},
		{"redo", 1, StateRedo},
		{"unknown small code", 500, StateUnknown},
		{"unknown upper sentinel bound", 999, StateUnknown},
		{"negative code", -5, StateUnknown},
		{"first timestamp is overdue", 1000, StateOverdue},
		{"manual hold", ManualNextTry, StateManual},
		{"just overdue", now - 1, StateOverdue},
		{"due now is deferred", now, StateDeferred},
		{"just deferred", now + 1, StateDeferred},
		{"far future", math.MaxInt64, StateDeferred},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.nextTry, now); got != tc.want {
				t.Fatalf("Classify(%d, %d) = %s, want %s", tc.nextTry, now, got, tc.want)
			}
		})
	}
}

func TestClassifyManualIgnoresNow(t *testing.T) {
	for _, now := range []int64{0, 1000, ManualNextTry - 1, ManualNextTry, ManualNextTry + 1, math.MaxInt64} {
		if got := Classify(ManualNextTry, now); got != StateManual {
			t.Fatalf("Classify(manual, %d) = %s", now, got)
		}
	}
}

func TestClassifyReplicationLabelsNewFile(t *testing.T) {
	const now int64 = 1_700_000_000
	if got := ClassifyReplication(0, now); got != StateNewFile {
		t.Fatalf("expected newfile, got %s", got)
	}
	for _, nextTry := range []int64{1, 7, ManualNextTry, now - 10, now + 10} {
		if a, b := ClassifyReplication(nextTry, now), Classify(nextTry, now); a != b {
			t.Fatalf("replication variant diverged for %d: %s vs %s", nextTry, a, b)
		}
	}
}

// Every value lands in exactly one of the rule buckets.
func TestClassifyPartitionsDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	valid := map[State]bool{
		StateNew: true, StateRedo: true, StateUnknown: true,
		StateManual: true, StateOverdue: true, StateDeferred: true,
	}
	for i := 0; i < 10000; i++ {
		nextTry := rng.Int63() - rng.Int63()
		now := rng.Int63n(1 << 32)
		state := Classify(nextTry, now)
		if !valid[state] {
			t.Fatalf("Classify(%d, %d) returned invalid state %q", nextTry, now, state)
		}
		var matches int
		if nextTry < 1000 {
			matches++
		}
		if nextTry >= 1000 && nextTry == ManualNextTry {
			matches++
		}
		if nextTry >= 1000 && nextTry != ManualNextTry && nextTry < now {
			matches++
		}
		if nextTry >= 1000 && nextTry != ManualNextTry && nextTry >= now {
			matches++
		}
		if matches != 1 {
			t.Fatalf("rules overlap or leave a gap at nextTry=%d now=%d", nextTry, now)
		}
	}
}

func TestQueueName(t *testing.T) {
	cases := map[int64]string{1: QueueFsck, 2: QueueRebalance, 0: QueueUnknown, 3: QueueUnknown, -1: QueueUnknown}
	for code, want := range cases {
		if got := QueueName(code); got != want {
			t.Fatalf("QueueName(%d) = %s, want %s", code, got, want)
		}
	}
}

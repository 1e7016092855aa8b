package confidence_test

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/SixtySecondsApp/use60-sub018/internal/confidence"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
)

func testParams() confidence.Params {
	return confidence.Params{
		Weights:           testWeights,
		DecayHalfLifeDays: 30,
		SampleFloor:       10,
		RecentWindow:      30,
		EligibleScore:     0.7,
		EligibleSignals:   10,
	}
}

func TestBuildAggregateCounts(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	sigs := []signals.Signal{
		sigAt(signals.KindApproved, day(5)),
		sigAt(signals.KindApproved, day(4)),
		{Kind: signals.KindApproved, CreatedAt: day(3), RubberStamp: true},
		sigAt(signals.KindApprovedEdited, day(2)),
		sigAt(signals.KindRejected, day(1)),
		sigAt(signals.KindUndone, day(1)),
	}

	agg := confidence.BuildAggregate(sigs, testParams(), now)

	if agg.TotalSignals != 6 {
		t.Errorf("TotalSignals = %d, want 6", agg.TotalSignals)
	}
	if agg.ApprovedCount != 4 {
		t.Errorf("ApprovedCount = %d, want 4", agg.ApprovedCount)
	}
	if agg.CleanApprovedCount != 3 {
		t.Errorf("CleanApprovedCount = %d, want 3 (rubber stamp excluded)", agg.CleanApprovedCount)
	}
	if agg.RejectedCount != 1 {
		t.Errorf("RejectedCount = %d, want 1", agg.RejectedCount)
	}
	if agg.UndoneCount != 1 {
		t.Errorf("UndoneCount = %d, want 1", agg.UndoneCount)
	}
	if agg.DaysActive != 5 {
		t.Errorf("DaysActive = %d, want 5", agg.DaysActive)
	}
}

func TestBuildAggregateRates(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	age := now.Add(-24 * time.Hour)

	sigs := append(batch(signals.KindApproved, 8, age), batch(signals.KindRejected, 2, age)...)
	agg := confidence.BuildAggregate(sigs, testParams(), now)

	if agg.ApprovalRate != 0.8 {
		t.Errorf("ApprovalRate = %v, want 0.8", agg.ApprovalRate)
	}
	if agg.RejectionRate != 0.2 {
		t.Errorf("RejectionRate = %v, want 0.2", agg.RejectionRate)
	}
	if agg.EditRate != 0 {
		t.Errorf("EditRate = %v, want 0", agg.EditRate)
	}
}

func TestBuildAggregateEmptyWindow(t *testing.T) {
	agg := confidence.BuildAggregate(nil, testParams(), time.Now())

	if agg.TotalSignals != 0 || agg.Score != 0 {
		t.Fatalf("empty window produced TotalSignals=%d Score=%v, want zeros", agg.TotalSignals, agg.Score)
	}
	if agg.PromotionEligible {
		t.Fatal("empty window must not be promotion eligible")
	}
	if agg.FirstSignalAt != nil || agg.LastSignalAt != nil {
		t.Fatal("empty window must have nil first/last timestamps")
	}
}

func TestBuildAggregateOrderInsensitive(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	sigs := make([]signals.Signal, 0, 30)
	for i := range 30 {
		kind := signals.KindApproved
		if i%5 == 0 {
			kind = signals.KindRejected
		}
		sigs = append(sigs, sigAt(kind, now.AddDate(0, 0, -i)))
	}

	ordered := confidence.BuildAggregate(sigs, testParams(), now)

	shuffled := make([]signals.Signal, len(sigs))
	copy(shuffled, sigs)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	permuted := confidence.BuildAggregate(shuffled, testParams(), now)

	if !reflect.DeepEqual(ordered, permuted) {
		t.Fatalf("aggregate differs across input permutations:\n%+v\n%+v", ordered, permuted)
	}
}

func TestBuildAggregatePromotionEligibility(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	age := now.Add(-24 * time.Hour)

	t.Run("high score and enough signals", func(t *testing.T) {
		agg := confidence.BuildAggregate(batch(signals.KindApproved, 15, age), testParams(), now)
		if !agg.PromotionEligible {
			t.Fatalf("eligible = false with score %v and %d signals", agg.Score, agg.TotalSignals)
		}
	})

	t.Run("too few signals", func(t *testing.T) {
		agg := confidence.BuildAggregate(batch(signals.KindApproved, 5, age), testParams(), now)
		if agg.PromotionEligible {
			t.Fatalf("eligible = true with only %d signals", agg.TotalSignals)
		}
	})

	t.Run("low score", func(t *testing.T) {
		sigs := append(batch(signals.KindApproved, 6, age), batch(signals.KindUndone, 6, age)...)
		agg := confidence.BuildAggregate(sigs, testParams(), now)
		if agg.PromotionEligible {
			t.Fatalf("eligible = true with score %v", agg.Score)
		}
	})
}

func TestBuildAggregateAvgResponse(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ms := func(n int) *int { return &n }

	sigs := []signals.Signal{
		{Kind: signals.KindApproved, CreatedAt: now.Add(-time.Hour), ResponseLatencyMs: ms(4000)},
		{Kind: signals.KindApproved, CreatedAt: now.Add(-time.Hour), ResponseLatencyMs: ms(8000)},
		{Kind: signals.KindAutoExecuted, CreatedAt: now.Add(-time.Hour)},
	}

	agg := confidence.BuildAggregate(sigs, testParams(), now)
	if agg.AvgResponseMs == nil {
		t.Fatal("AvgResponseMs = nil, want average of responding signals")
	}
	if *agg.AvgResponseMs != 6000 {
		t.Fatalf("AvgResponseMs = %v, want 6000", *agg.AvgResponseMs)
	}
}

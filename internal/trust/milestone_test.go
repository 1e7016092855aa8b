package trust

import (
	"strings"
	"testing"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
)

func milestoneRepo(t *testing.T) *repo {
	t.Helper()

	engine := &config.EngineConfig{}
	if err := engine.Finalize(); err != nil {
		t.Fatalf("engine config finalize: %v", err)
	}
	return &repo{engine: engine}
}

func TestMilestoneCrossed(t *testing.T) {
	r := milestoneRepo(t)

	tests := []struct {
		name    string
		clean   int
		extra   int
		want    int
		crossed bool
	}{
		{"first milestone", 5, 0, 5, true},
		{"second milestone", 10, 0, 10, true},
		{"third milestone", 20, 0, 20, true},
		{"between milestones", 7, 0, 0, false},
		{"past last milestone", 21, 0, 0, false},
		{"zero approvals", 0, 0, 0, false},
		{"extra friction shifts milestone", 8, 3, 8, true},
		{"unshifted count with friction", 5, 3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			required, crossed := r.milestoneCrossed(tt.clean, tt.extra)
			if crossed != tt.crossed || required != tt.want {
				t.Errorf("milestoneCrossed(%d, %d) = (%d, %v), want (%d, %v)",
					tt.clean, tt.extra, required, crossed, tt.want, tt.crossed)
			}
		})
	}
}

func TestRenderNudgeMessage(t *testing.T) {
	c := &PromotionCandidate{
		ActionType:     "draft_email",
		FromTier:       TierSuggest,
		ToTier:         TierApprove,
		CleanApprovals: 10,
	}

	first := renderNudgeMessage(c)
	second := renderNudgeMessage(c)

	if first != second {
		t.Fatal("nudge message not deterministic for identical candidates")
	}
	for _, want := range []string{"10", "draft_email", "suggest", "approve"} {
		if !strings.Contains(first, want) {
			t.Errorf("nudge message %q missing %q", first, want)
		}
	}
}

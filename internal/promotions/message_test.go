package promotions

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/SixtySecondsApp/use60-sub018/internal/confidence"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

func candidate(actionType string) trust.PromotionCandidate {
	return trust.PromotionCandidate{
		ActionType:     actionType,
		FromTier:       trust.TierSuggest,
		ToTier:         trust.TierApprove,
		CleanApprovals: 10,
		Confidence: confidence.Aggregate{
			Score:              0.84,
			TotalSignals:       24,
			CleanApprovalRate:  0.75,
			ApprovedCount:      20,
			CleanApprovedCount: 18,
			RejectedCount:      2,
			UndoneCount:        1,
			DaysActive:         12,
		},
	}
}

func TestBuildMessageSingleCandidate(t *testing.T) {
	msg := BuildMessage("U123", []trust.PromotionCandidate{candidate("draft_email")})

	if msg.Recipient != "U123" {
		t.Errorf("recipient = %q, want U123", msg.Recipient)
	}
	if len(msg.Buttons) != 3 {
		t.Fatalf("len(buttons) = %d, want 3 affordances for a single candidate", len(msg.Buttons))
	}

	payloads := make([]string, 0, 3)
	for _, b := range msg.Buttons {
		payloads = append(payloads, b.Payload)
	}
	joined := strings.Join(payloads, " ")
	for _, action := range []string{"accept", "defer", "never"} {
		if !strings.Contains(joined, action) {
			t.Errorf("button payloads %q missing action %q", joined, action)
		}
	}
}

func TestBuildMessageBatch(t *testing.T) {
	batch := []trust.PromotionCandidate{candidate("draft_email"), candidate("schedule_meeting")}
	msg := BuildMessage("U123", batch)

	if len(msg.Buttons) != 2 {
		t.Fatalf("len(buttons) = %d, want 2 affordances for a batch", len(msg.Buttons))
	}
	if len(msg.Sections) != 1 {
		t.Fatalf("len(sections) = %d, want 1", len(msg.Sections))
	}
	for _, at := range []string{"draft_email", "schedule_meeting"} {
		if !strings.Contains(msg.Sections[0].Text, at) {
			t.Errorf("batch section missing %q", at)
		}
	}
}

func TestBuildMessageDeterministic(t *testing.T) {
	c := []trust.PromotionCandidate{candidate("draft_email")}

	first := BuildMessage("U123", c)
	second := BuildMessage("U123", c)

	if len(first.Sections) != len(second.Sections) {
		t.Fatal("section counts differ across identical builds")
	}
	for i := range first.Sections {
		if first.Sections[i] != second.Sections[i] {
			t.Fatalf("section %d differs across identical builds", i)
		}
	}
}

func TestScorecardContents(t *testing.T) {
	card := scorecard(candidate("draft_email"))

	for _, want := range []string{"24", "75%", "12", "0.84"} {
		if !strings.Contains(card, want) {
			t.Errorf("scorecard %q missing %q", card, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 8, "hello w…"},
		{"multibyte preserved", "héllo wörld", 8, "héllo w…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if utf8.RuneCountInString(got) > tt.limit {
				t.Errorf("result %q exceeds %d runes", got, tt.limit)
			}
		})
	}
}

func TestTruncateBytes(t *testing.T) {
	t.Run("under limit untouched", func(t *testing.T) {
		if got := truncateBytes("short", 100); got != "short" {
			t.Errorf("truncateBytes = %q, want unchanged", got)
		}
	})

	t.Run("over limit capped", func(t *testing.T) {
		long := strings.Repeat("x", 3000)
		got := truncateBytes(long, maxPayloadBytes)
		if len(got) > maxPayloadBytes {
			t.Fatalf("len = %d, want <= %d", len(got), maxPayloadBytes)
		}
		if !strings.HasSuffix(got, truncationMarker) {
			t.Error("truncated payload missing ellipsis")
		}
	})

	t.Run("never splits a rune", func(t *testing.T) {
		long := strings.Repeat("é", 2000)
		got := truncateBytes(long, maxPayloadBytes)
		if !utf8.ValidString(got) {
			t.Fatal("truncation produced invalid UTF-8")
		}
	})
}

func TestButtonLabelCapped(t *testing.T) {
	b := button(strings.Repeat("a", 200), "{}")
	if utf8.RuneCountInString(b.Label) > maxLabelRunes {
		t.Fatalf("label length = %d runes, want <= %d", utf8.RuneCountInString(b.Label), maxLabelRunes)
	}
}

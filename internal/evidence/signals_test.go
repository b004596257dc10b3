package evidence

import "testing"

func TestBreakdownAddDeduplicatesByKind(t *testing.T) {
	var b Breakdown
	if !b.Add(Signal{Kind: KindGovText, Points: 30}) {
		t.Fatal("first add should succeed")
	}
	if b.Add(Signal{Kind: KindGovText, Points: 25}) {
		t.Fatal("second add of same kind should be rejected")
	}
	if b.TotalPoints != 30 {
		t.Fatalf("expected 30 points got %d", b.TotalPoints)
	}
}

func TestBreakdownVetoCarriesNoPoints(t *testing.T) {
	var b Breakdown
	b.Add(Signal{Kind: KindDriverVeto, Points: 99, Veto: true})
	b.Add(Signal{Kind: KindVisualFlag, Points: 40})

	if b.TotalPoints != 40 {
		t.Fatalf("expected veto to contribute zero points, total %d", b.TotalPoints)
	}
	sig, ok := b.Veto()
	if !ok || sig.Kind != KindDriverVeto {
		t.Fatalf("expected driver veto, got %v %v", sig, ok)
	}
}

func TestBreakdownConfidence(t *testing.T) {
	tests := []struct {
		name     string
		points   int
		expected float64
	}{
		{"zero", 0, 0},
		{"half", 50, 0.5},
		{"exact", 100, 1},
		{"clamped", 185, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := Breakdown{TotalPoints: tc.points}
			if got := b.Confidence(); got != tc.expected {
				t.Fatalf("expected %.2f got %.2f", tc.expected, got)
			}
		})
	}
}

func TestBreakdownTextSupportExcludesVisualSignals(t *testing.T) {
	var b Breakdown
	b.Add(Signal{Kind: KindVisualFlag, Points: 40})
	b.Add(Signal{Kind: KindVisualLogoPair, Points: 70})
	b.Add(Signal{Kind: KindGovText, Points: 30})

	if got := b.TextSupport(); got != 30 {
		t.Fatalf("expected text support 30 got %d", got)
	}
}

func TestNilBreakdownIsSafe(t *testing.T) {
	var b *Breakdown
	if b.Add(Signal{Kind: KindGovText}) {
		t.Fatal("nil breakdown should reject adds")
	}
	if b.Confidence() != 0 || b.TextSupport() != 0 {
		t.Fatal("nil breakdown should report zeros")
	}
	if lines := b.TraceLines(); lines != nil {
		t.Fatalf("nil breakdown should have no trace, got %v", lines)
	}
}

package billing

import (
	"math"
	"strings"
	"testing"

	models "maimai/internal/domain/models/billing"
)

func TestEstimateMessageCost(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty text costs the minimum", text: "", want: 1},
		{name: "short greeting", text: "Hi", want: 1},
		{name: "exactly 100 chars", text: strings.Repeat("a", 100), want: 1},
		{name: "101 chars rounds up", text: strings.Repeat("a", 101), want: 2},
		{name: "250 chars", text: strings.Repeat("a", 250), want: 3},
		{name: "1000 chars", text: strings.Repeat("a", 1000), want: 10},
		{name: "accented letters count once", text: strings.Repeat("é", 100), want: 1},
		{name: "astral emoji count as two units", text: strings.Repeat("😀", 51), want: 2},
		{name: "50 emoji fill one credit", text: strings.Repeat("😀", 50), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateMessageCost(tt.text); got != tt.want {
				t.Errorf("EstimateMessageCost(len=%d) = %d, want %d", len(tt.text), got, tt.want)
			}
		})
	}
}

func TestCharacterCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"日本語", 3},
		{"hi 😀", 5},
		{"\xff", 1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := CharacterCount(tt.text); got != tt.want {
				t.Errorf("CharacterCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateMessageCost_Properties(t *testing.T) {
	for n := 0; n <= 2000; n += 7 {
		text := strings.Repeat("x", n)
		got := EstimateMessageCost(text)
		if got < 1 {
			t.Fatalf("len %d: cost %d below minimum", n, got)
		}
		if n >= 100 {
			want := int(math.Ceil(float64(n) / 100))
			if got != want {
				t.Fatalf("len %d: cost %d, want ceil(len/100) = %d", n, got, want)
			}
		}
	}
}

func TestComputeBilledCost_Scenario(t *testing.T) {
	rate := &models.ModelCost{InCost: 0.00001, OutCost: 0.00003, Markup: 1.5}

	// ceil((1000*0.00001 + 500*0.00003) * 1.5 * 100) = ceil(3.75) = 4
	if got := ComputeBilledCost(1000, 500, rate); got != 4 {
		t.Errorf("ComputeBilledCost = %d, want 4", got)
	}
}

func TestComputeBilledCost_Monotonic(t *testing.T) {
	rates := []*models.ModelCost{
		{InCost: 0.00001, OutCost: 0.00003, Markup: 1.5},
		{InCost: 0.0000025, OutCost: 0.00001, Markup: 2},
		{InCost: 0, OutCost: 0.00006, Markup: 1},
	}

	for _, rate := range rates {
		prev := -1
		for in := 0; in <= 20000; in += 137 {
			got := ComputeBilledCost(in, 500, rate)
			if got < prev {
				t.Fatalf("not monotonic in input tokens at %d: %d < %d", in, got, prev)
			}
			prev = got
		}

		prev = -1
		for out := 0; out <= 20000; out += 137 {
			got := ComputeBilledCost(1000, out, rate)
			if got < prev {
				t.Fatalf("not monotonic in output tokens at %d: %d < %d", out, got, prev)
			}
			prev = got
		}
	}
}

func TestCalculateTokenCosts_Unscaled(t *testing.T) {
	rate := &models.ModelCost{InCost: 0.00001, OutCost: 0.00003, Markup: 1.5}

	got := CalculateTokenCosts(1000, 500, rate)
	want := 0.0375
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CalculateTokenCosts = %v, want %v", got, want)
	}

	if tenX := TenXCost(1000, 500, rate); math.Abs(tenX-0.375) > 1e-12 {
		t.Errorf("TenXCost = %v, want 0.375", tenX)
	}
}

func TestImageCost(t *testing.T) {
	predicted := 25
	zero := 0

	tests := []struct {
		name string
		rate *models.ModelCost
		want int
	}{
		{name: "no rate record", rate: nil, want: DefaultImageCredits},
		{name: "rate without prediction", rate: &models.ModelCost{Model: models.ImageModel}, want: DefaultImageCredits},
		{name: "zero prediction", rate: &models.ModelCost{PredictedCost: &zero}, want: DefaultImageCredits},
		{name: "flat cost from rate", rate: &models.ModelCost{PredictedCost: &predicted}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImageCost(tt.rate); got != tt.want {
				t.Errorf("ImageCost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPredictCost(t *testing.T) {
	if _, ok := PredictCost(nil); ok {
		t.Error("expected no prediction for empty input")
	}
	got, ok := PredictCost([]int{1, 2, 2})
	if !ok || got != 2 {
		t.Errorf("PredictCost = %d, %v; want 2, true", got, ok)
	}
	got, _ = PredictCost([]int{3, 4})
	if got != 4 {
		t.Errorf("PredictCost([3,4]) = %d, want 4", got)
	}
}

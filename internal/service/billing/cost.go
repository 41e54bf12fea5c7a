package billing

import (
	"math"
	"unicode/utf16"

	models "maimai/internal/domain/models/billing"
)

const (
	// charsPerCredit: one credit per 100 characters
	charsPerCredit = 100

	// creditScale converts rate-card units into stored credit values.
	// Existing stored credit_cost values depend on this exact factor.
	creditScale = 100

	// tenXMultiplier inflates the display cost shown to users
	tenXMultiplier = 10

	// DefaultImageCredits is charged per image when no image rate exists
	DefaultImageCredits = 40
)

// CharacterCount counts UTF-16 code units, so an emoji outside the BMP
// counts as two characters. Stored estimates depend on this measure.
func CharacterCount(text string) int {
	n := 0
	for _, r := range text {
		if size := utf16.RuneLen(r); size > 0 {
			n += size
		} else {
			n++
		}
	}
	return n
}

// EstimateMessageCost is the up-front charge for a message: 1 credit per
// 100 characters, minimum 1. Used as the pre-flight gate.
// Integer division keeps ceil exact where len*0.01 would drift (700*0.01 > 7).
func EstimateMessageCost(text string) int {
	chars := CharacterCount(text)
	cost := (chars + charsPerCredit - 1) / charsPerCredit
	if cost < 1 {
		return 1
	}
	return cost
}

// ComputeBilledCost is the credit cost stored on an assistant message,
// computed from actual token usage.
func ComputeBilledCost(inputTokens, outputTokens int, rate *models.ModelCost) int {
	raw := float64(inputTokens)*rate.InCost + float64(outputTokens)*rate.OutCost
	return int(math.Ceil(raw * rate.Markup * creditScale))
}

// CalculateTokenCosts is the unscaled, unrounded cost used for retrospective display.
func CalculateTokenCosts(inputTokens, outputTokens int, rate *models.ModelCost) float64 {
	return float64(inputTokens)*rate.InCost*rate.Markup + float64(outputTokens)*rate.OutCost*rate.Markup
}

// TenXCost is the inflated display cost stored alongside a message
func TenXCost(inputTokens, outputTokens int, rate *models.ModelCost) float64 {
	return CalculateTokenCosts(inputTokens, outputTokens, rate) * tenXMultiplier
}

// ImageCost is the flat per-image charge from the image rate record
func ImageCost(rate *models.ModelCost) int {
	if rate == nil || rate.PredictedCost == nil || *rate.PredictedCost <= 0 {
		return DefaultImageCredits
	}
	return *rate.PredictedCost
}

// PredictCost is ceil(average(costs)); ok is false when there is nothing to average
func PredictCost(costs []int) (int, bool) {
	if len(costs) == 0 {
		return 0, false
	}
	total := 0
	for _, c := range costs {
		total += c
	}
	return int(math.Ceil(float64(total) / float64(len(costs)))), true
}

package villa

import "fmt"

const (
	// Unmapped budgets describe as "luxury" rather than the stored default's
	// "premium"; kept for parity with the bot's existing captions.
	fallbackBudgetDescription = "luxury"
	fallbackAngleDescription  = "aerial view of a"
)

func BudgetDescription(budget string) string {
	switch budget {
	case "100k-200k":
		return "budget-friendly"
	case "200k-300k":
		return "standard"
	case "300k-500k":
		return "premium"
	case "500k-750k":
		return "luxury"
	case "750k-1m":
		return "ultra-luxury"
	case "1m-plus":
		return "elite high-end"
	default:
		return fallbackBudgetDescription
	}
}

func AngleDescription(angle string) string {
	switch angle {
	case "orbit":
		return "aerial 360-degree view around a"
	case "top-down":
		return "top-down aerial view of a"
	case "approach":
		return "front approach view of a"
	case "flyover":
		return "low flyover shot of a"
	case "parallax":
		return "parallax arc shot of a"
	default:
		return fallbackAngleDescription
	}
}

// BuildPrompt composes the base prompt handed to the enhancer.
func BuildPrompt(p Preferences) string {
	return fmt.Sprintf(
		"A photorealistic %s %s %s villa located at the %s, luxury vacation home, professional photography, high detail, 4K",
		AngleDescription(p.CameraAngle),
		BudgetDescription(p.Budget),
		p.Style,
		p.Location,
	)
}

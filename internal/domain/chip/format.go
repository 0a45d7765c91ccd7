package chip

import "fmt"

// FormatCooldown renders a cooldown remainder such as "3 GWs". Empty when not on cooldown.
func FormatCooldown(remainingGameweeks int) string {
	if remainingGameweeks <= 0 {
		return ""
	}
	if remainingGameweeks == 1 {
		return "1 GW"
	}
	return fmt.Sprintf("%d GWs", remainingGameweeks)
}

// FormatSeasonLimit renders remaining season uses such as "2/4 left". Empty for unlimited chips.
func FormatSeasonLimit(def Definition, usageCount int) string {
	if def.SeasonLimit == nil {
		return ""
	}
	remaining := max(*def.SeasonLimit-usageCount, 0)
	return fmt.Sprintf("%d/%d left", remaining, *def.SeasonLimit)
}

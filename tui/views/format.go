package views

import (
	"strings"

	"github.com/shopspring/decimal"
)

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max < 2 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func formatPrice(p decimal.Decimal) string {
	return p.StringFixedBank(0) + " AZN"
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 40
	}
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		if line != "" && len(line)+len(word)+1 > width {
			lines = append(lines, line)
			line = word
			continue
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

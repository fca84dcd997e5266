package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	successColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgHiYellow)
	dimColor     = color.New(color.FgHiBlack)

	rule = strings.Repeat("─", 60)
)

// formatSeconds renders a duration as "1h05m", "12m" or "40s".
func formatSeconds(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

func formatConfidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.7:
		return successColor.Sprint(text)
	case c >= 0.4:
		return warnColor.Sprint(text)
	default:
		return dimColor.Sprint(text)
	}
}

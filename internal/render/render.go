// Package render draws a consistency score for the terminal.
package render

import (
	"cadence/internal/score"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	subtle  = lipgloss.Color("240")
	success = lipgloss.Color("42")
	warning = lipgloss.Color("220")
	failure = lipgloss.Color("196")
	primary = lipgloss.Color("63")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle  = lipgloss.NewStyle().Foreground(subtle).Width(20)
	bulletStyle = lipgloss.NewStyle().PaddingLeft(2)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtle).Padding(0, 1)
)

// chartHeight is the number of rows of the session chart.
const chartHeight = 6

// scoreColor picks the headline color by score tier.
func scoreColor(value int) lipgloss.Color {
	switch {
	case value >= 70:
		return success
	case value >= 40:
		return warning
	default:
		return failure
	}
}

// Write renders result to w.
func Write(w io.Writer, result *score.ConsistencyScore) error {
	_, err := io.WriteString(w, Render(result)+"\n")
	return err
}

// Render returns the full terminal view: headline, breakdown, explanations, a daily
// activity strip and a session count chart.
func Render(result *score.ConsistencyScore) string {
	var b strings.Builder

	headline := lipgloss.NewStyle().Bold(true).Foreground(scoreColor(result.Score)).
		Render(fmt.Sprintf("%d/100", result.Score))
	b.WriteString(titleStyle.Render("Consistency score") + " " + headline + "\n\n")

	b.WriteString(boxStyle.Render(breakdown(result.Breakdown)) + "\n\n")

	for _, line := range result.Explanations {
		b.WriteString(bulletStyle.Render("• "+line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(Strip(result.ChartData) + "\n")
	b.WriteString(Chart(result.ChartData))
	return b.String()
}

func breakdown(bd score.Breakdown) string {
	rows := []struct {
		label string
		value float64
		max   float64
	}{
		{"Base", bd.BaseScore, 60},
		{"Distribution bonus", bd.DistributionBonus, 25},
		{"Streak bonus", bd.StreakBonus, 10},
		{"Recency bonus", bd.RecencyBonus, 5},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row.label)+fmt.Sprintf("%5.1f / %2.0f", row.value, row.max))
	}
	return strings.Join(lines, "\n")
}

// Strip renders one cell per chart day, oldest first, followed by the date range.
func Strip(days []score.DayActivity) string {
	if len(days) == 0 {
		return ""
	}

	active := lipgloss.NewStyle().Foreground(success)
	idle := lipgloss.NewStyle().Foreground(subtle)

	var b strings.Builder
	for _, day := range days {
		if day.HasActivity {
			b.WriteString(active.Render("■"))
		} else {
			b.WriteString(idle.Render("·"))
		}
	}
	return fmt.Sprintf("%s  %s .. %s", b.String(), days[0].Date, days[len(days)-1].Date)
}

// Chart plots sessions per day.
func Chart(days []score.DayActivity) string {
	if len(days) == 0 {
		return lipgloss.NewStyle().Foreground(subtle).Render("No data available")
	}

	data := make([]float64, len(days))
	for i, day := range days {
		data[i] = float64(day.SessionCount)
	}

	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.Caption("sessions per day"),
	)
}

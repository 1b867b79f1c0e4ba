package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ── Startup display helpers ────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))
)

const lineWidth = 46

func printBanner(cfgPath string) {
	if cfgPath == "" {
		cfgPath = "built-in defaults"
	}
	fmt.Println()
	fmt.Println("  " + titleStyle.Render("cask v"+version))
	fmt.Println()
	fmt.Printf("  config: %s\n\n", dimStyle.Render(cfgPath))
}

func printSection(title string) {
	fill := lineWidth - lipgloss.Width(title) - 1
	if fill < 3 {
		fill = 3
	}
	fmt.Println("  " + sectionStyle.Render("── "+title+" "+strings.Repeat("─", fill)))
}

func printStat(label string, count int) {
	printValue(label, strconv.Itoa(count))
}

func printValue(label, value string) {
	fmt.Print(statLine(label, value))
}

func statLine(label, value string) string {
	dots := lineWidth - 4 - lipgloss.Width(label) - lipgloss.Width(value)
	if dots < 3 {
		dots = 3
	}
	return fmt.Sprintf("  %s %s %s\n", label, dimStyle.Render(strings.Repeat("·", dots)), okStyle.Render(value))
}

func printOK(msg string) {
	fmt.Printf("  %s %s\n", okStyle.Render("✓"), msg)
}

func printReady(msg string) {
	fmt.Printf("  %s %s\n", okStyle.Render("▶"), msg)
}

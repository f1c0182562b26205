package commands

import (
	"fmt"
)

// Common formatting utilities so every command prints the same way.

// printSection prints a section header.
func printSection(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
}

// printKV prints an aligned key/value line.
func printKV(key, value string) {
	fmt.Printf("  %-20s: %s\n", key, value)
}

// printSeparator prints a visual separator.
func printSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// printSuccess prints a success message.
func printSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// printError prints an error message.
func printError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// printTableHeader prints a fixed-width table header with a rule.
func printTableHeader(columns []string, widths []int) {
	totalWidth := 0
	for i, col := range columns {
		fmt.Printf("%-*s", widths[i], col)
		totalWidth += widths[i]
		if i < len(columns)-1 {
			fmt.Print("  ")
			totalWidth += 2
		}
	}
	fmt.Println()
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

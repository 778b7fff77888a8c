package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the collective CLI.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("               _ _           _   _           ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("   ___ ___ | | | ___  ___| |_(_)_   _____ ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("  / __/ _ \\| | |/ _ \\/ __| __| \\ \\ / / _ \\").Foreground(p.Color("#c084fc"))
	s4 := termenv.String(" | (_| (_) | | |  __/ (__| |_| |\\ V /  __/").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("  \\___\\___/|_|_|\\___|\\___|\\__|_| \\_/ \\___|").Foreground(p.Color("#f472b6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}

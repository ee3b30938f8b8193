// Package colors provides the CLI palette with TTY-aware defaults.
//
// Colors are disabled when stdout is not a terminal; fatih/color detects that
// on its own. Use Init to apply the --color flag.
package colors

import "github.com/fatih/color"

// Init overrides the auto-detected color setting when forceColor is set.
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color  { return color.New(color.Bold) }
func Faint() *color.Color { return color.New(color.Faint) }

// Header styles section titles of the info command.
func Header() *color.Color { return color.New(color.Bold, color.FgHiBlue) }

// Label styles field names in key/value listings.
func Label() *color.Color { return color.New(color.Italic, color.Faint) }

// Address styles virtual addresses and file offsets.
func Address() *color.Color { return color.New(color.FgHiMagenta) }

// Count styles table sizes.
func Count() *color.Color { return color.New(color.Bold, color.FgHiGreen) }

// Zero styles runs of zero bytes in hex dumps.
func Zero() *color.Color { return color.New(color.Faint, color.FgHiBlue) }

// Warning styles inline warnings such as unmapped anchors.
func Warning() *color.Color { return color.New(color.Bold, color.FgHiYellow) }

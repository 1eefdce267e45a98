package tui

// Color constants for the fieldclock TUI theme
const (
	// Text Colors
	ColorPrimaryText   = "#E8EDF2" // Field labels, user input, titles
	ColorSecondaryText = "#AAB4C0" // Secondary text
	ColorDisabledText  = "#6B7480" // Disabled/muted text
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors (teal theme)
	ColorAccentMain   = "#0D9488" // Accent elements, active borders
	ColorAccentBright = "#2DD4BF" // Highlights, current step

	// State Colors
	ColorError   = "#EF4444" // Validation errors
	ColorSuccess = "#22C55E" // Success, confirmations
)

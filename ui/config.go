package ui

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir string `env:"HOME"`

	// Speech settings, resolved by the caller from flags and config file.
	Engine string
	Voice  string
	Rate   float64
	Volume float64

	// Sanitizer settings.
	MaxLength int
	Overflow  string
	Strict    bool

	// For debugging the UI
	StatusInterval int `env:"UTTER_STATUS_INTERVAL" envDefault:"250"`
}

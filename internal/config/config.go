package config

// Config carries the project-level settings shared by the loader, the
// evaluator and the exporter.
type Config struct {
	RequestPath  string
	OutputVideo  string
	Width        int
	Height       int
	FPS          int
	SampleRate   int
	Workers      int
	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string
}

// Defaults fills unset fields with project defaults.
func (c *Config) Defaults() {
	if c.Width == 0 {
		c.Width = 1280
	}
	if c.Height == 0 {
		c.Height = 720
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.Quality == 0 {
		c.Quality = 23
	}
	if c.VideoEncoder == "" {
		c.VideoEncoder = "libx264"
	}
}

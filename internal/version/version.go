// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - External ephemeris sources (service, JPL DE file), fallback events, HTTP API
// 0.2.0 - Rotational dials for moons, self-check battery, TOML config
// 0.1.0 - Initial release: Earth and Mars clocks, circular orbit model, TUI

// Package settings holds runtime settings that can change while the process
// runs, and reloads them when the configuration file changes.
package settings

import "sync/atomic"

// Flag is the site-wide enable switch. The zero value is disabled.
type Flag struct {
	on atomic.Bool
}

// NewFlag returns a Flag set to enabled.
func NewFlag(enabled bool) *Flag {
	f := &Flag{}
	f.on.Store(enabled)
	return f
}

// Enabled reports the current value. A nil Flag is enabled.
func (f *Flag) Enabled() bool {
	if f == nil {
		return true
	}
	return f.on.Load()
}

// Set changes the value and reports whether it changed.
func (f *Flag) Set(enabled bool) bool {
	return f.on.Swap(enabled) != enabled
}

// Package launch formulates the shell commands that start a database client
// or an SSH tunnel for a saved connection, and runs them.
package launch

import (
	"fmt"
	"runtime"
)

// Platform selects the terminal wrapping rules.
type Platform string

const (
	Darwin  Platform = "darwin"
	Windows Platform = "windows"
	Linux   Platform = "linux"
)

// CurrentPlatform maps runtime.GOOS onto a Platform. Unknown systems get the Linux rules.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return Darwin
	case "windows":
		return Windows
	default:
		return Linux
	}
}

// Mode says how the formulated command will be used.
type Mode string

const (
	// ModeCommand runs in the caller's terminal.
	ModeCommand Mode = "command"
	// ModeGUI opens a new terminal window.
	ModeGUI Mode = "gui"
	// ModePlugin runs silently on behalf of an editor plugin.
	ModePlugin Mode = "plugin"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCommand, ModeGUI, ModePlugin:
		return Mode(s), nil
	case "":
		return ModeCommand, nil
	}
	return "", fmt.Errorf("unknown launch mode %q (expected command|gui|plugin)", s)
}

// PluginBuffer is the scratch file that holds a plugin's script text.
const PluginBuffer = "dccm.buf"

// ResourceError names a referenced resource that could not be found.
type ResourceError struct {
	Kind string
	Ref  string
	Hint string
}

func (e *ResourceError) Error() string {
	msg := fmt.Sprintf("%s %q could not be found", e.Kind, e.Ref)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

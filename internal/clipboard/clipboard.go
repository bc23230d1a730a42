package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ClipboardError reports that no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a ClipboardError with installation hints
func NewClipboardError() *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux":
		msg = "no clipboard utility found. Install one of:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		msg = "pbcopy not available (this should not happen on macOS)"
	case "windows":
		msg = "clip command not available (this should not happen on Windows)"
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}

	return &ClipboardError{
		OS:      runtime.GOOS,
		Message: msg,
	}
}

// Copy copies text to the system clipboard
func Copy(text string) error {
	switch runtime.GOOS {
	case "darwin":
		return pipeTo(text, "pbcopy")
	case "linux":
		return copyLinux(text)
	case "windows":
		return pipeTo(text, "clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// copyLinux tries Wayland and X11 utilities in order
func copyLinux(text string) error {
	candidates := [][]string{
		{"wl-copy"},
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	}

	for _, candidate := range candidates {
		if _, err := exec.LookPath(candidate[0]); err != nil {
			continue
		}
		return pipeTo(text, candidate[0], candidate[1:]...)
	}

	return NewClipboardError()
}

func pipeTo(text, name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return NewClipboardError()
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

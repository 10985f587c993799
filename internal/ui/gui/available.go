//go:build !headless

package gui

// Available reports whether this build carries the desktop UI.
func Available() bool {
	return true
}

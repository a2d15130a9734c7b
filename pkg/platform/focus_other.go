//go:build !darwin

// Package platform wraps the few OS calls the tray host needs. Outside macOS
// they do nothing.
package platform

// BringToFront is a no-op on non-macOS platforms
func BringToFront() {}

// SetActivationPolicy is a no-op on non-macOS platforms
func SetActivationPolicy() {}

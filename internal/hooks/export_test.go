package hooks

// SetMarkerPath redirects the kill-switch marker for tests and returns
// a restore func.
func SetMarkerPath(fn func() string) (restore func()) {
	old := markerPath
	markerPath = fn
	return func() { markerPath = old }
}

package hooks

import (
	"fmt"
	"os"
	"path/filepath"
)

// markerName is the kill-switch sentinel in the user's home directory.
// While it exists, every hook exits immediately without touching any
// store.
const markerName = ".recall-disabled"

// markerPath is a var for test override.
var markerPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, markerName)
}

// Disabled reports whether the kill switch is on. Checked fresh on
// every invocation so flipping it never needs a restart.
func Disabled() bool {
	path := markerPath()
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Disable turns the kill switch on.
func Disable() error {
	path := markerPath()
	if path == "" {
		return fmt.Errorf("hooks: cannot resolve home directory")
	}
	return os.WriteFile(path, []byte("recall is disabled; run `recall enable` to resume\n"), 0o644)
}

// Enable turns the kill switch off.
func Enable() error {
	path := markerPath()
	if path == "" {
		return fmt.Errorf("hooks: cannot resolve home directory")
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

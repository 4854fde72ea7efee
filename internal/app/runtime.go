package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

// ErrTestMode stops binaries before they dial Postgres or Redis.
var ErrTestMode = errors.New("test mode enabled, refusing to connect")

// InTestMode reports whether ODYSSEY_TEST_MODE holds a true boolean.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}

// GuardRuntime returns ErrTestMode, tagged with binary, while test mode is on.
func GuardRuntime(binary string) error {
	if InTestMode() {
		return fmt.Errorf("%s: %w", binary, ErrTestMode)
	}
	return nil
}

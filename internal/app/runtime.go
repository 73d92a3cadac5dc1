package app

import (
	"os"
	"strconv"
)

const testModeEnv = "BIZDESK_TEST_MODE"

// InTestMode reports whether BIZDESK_TEST_MODE is set to a true value, in
// which case the entrypoints return before dialing Postgres, Redis or
// Gotenberg.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}

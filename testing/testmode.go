// Package testing switches the process into test mode when blank-imported
// from a test, so entrypoints and external clients stay idle.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		_ = os.Setenv("BIZDESK_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

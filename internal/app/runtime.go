package app

import "os"

const testModeEnv = "ACCESSHUB_TEST_MODE"

// InTestMode reports whether the application should skip runtime side effects.
// Test packages set the flag via their shared TestMain before anything else runs.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}

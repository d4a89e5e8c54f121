package featureflags

import (
	"os"
	"strings"
)

// Enabled returns true if a flag is switched on in the environment.
// Flags are read as FLAG_<NAME>=true/1/yes/on (case-insensitive); dashes in
// name map to underscores, so "reject-late-reupload" reads FLAG_REJECT_LATE_REUPLOAD.
func Enabled(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey(name)))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func envKey(name string) string {
	return "FLAG_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

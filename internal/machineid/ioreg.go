package machineid

import (
	"fmt"
	"strings"
)

// parseIOReg extracts IOPlatformUUID from `ioreg -rd1 -c IOPlatformExpertDevice` output.
func parseIOReg(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "IOPlatformUUID") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		id := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: IOPlatformUUID not found", ErrUnavailable)
}

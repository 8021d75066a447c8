//go:build linux

package machineid

import (
	"fmt"
	"os"
	"strings"
)

var linuxIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

func platformID() (string, error) {
	for _, p := range linuxIDPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no readable machine-id", ErrUnavailable)
}

//go:build darwin

package machineid

import (
	"fmt"
	"os/exec"
)

func platformID() (string, error) {
	out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return "", fmt.Errorf("run ioreg: %w", err)
	}
	return parseIOReg(string(out))
}

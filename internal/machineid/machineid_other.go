//go:build !linux && !darwin && !windows

package machineid

func platformID() (string, error) {
	return "", ErrUnavailable
}

// Package machineid derives a stable identifier for the local machine. The
// identifier feeds the at-rest key so a copied database is unreadable on
// another host.
package machineid

import (
	"errors"
	"strings"
)

// Fallback is returned when the platform exposes no usable identity.
const Fallback = "dccm-machine-fallback-0000"

var ErrUnavailable = errors.New("machine identity unavailable")

// Provider yields the machine identity string.
type Provider interface {
	ID() (string, error)
}

// Static is a fixed identity, used by tests and by callers that must pin the key.
type Static string

func (s Static) ID() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrUnavailable
	}
	return string(s), nil
}

// Host reads the identity from the operating system.
type Host struct{}

func (Host) ID() (string, error) {
	id, err := platformID()
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrUnavailable
	}
	return id, nil
}

// Resolve returns the identity from p, or Fallback when p cannot produce one.
func Resolve(p Provider) string {
	if p == nil {
		return Fallback
	}
	id, err := p.ID()
	if err != nil || id == "" {
		return Fallback
	}
	return id
}

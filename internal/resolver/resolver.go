// Package resolver turns a connect string into a host and port, and checks
// connect strings before they are saved.
//
// Four forms are understood, tried in this order:
//
//  1. an alias looked up in the tnsnames.ora inside a wallet ZIP
//  2. EZConnect, e.g. db.example.com:1521/ORCL
//  3. a keyed descriptor, e.g. (ADDRESS=(HOST=h)(PORT=1521))
//  4. an alias looked up in the configured tnsnames.ora
package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Endpoint is the network location a connect string points at.
type Endpoint struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Service string `json:"service,omitempty"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ResolutionError reports a connect string that could not be turned into an Endpoint.
type ResolutionError struct {
	ConnectString string
	Reason        string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %s", e.ConnectString, e.Reason)
}

func resolutionErr(cs, format string, args ...any) error {
	return &ResolutionError{ConnectString: cs, Reason: fmt.Sprintf(format, args...)}
}

var (
	hostRe    = regexp.MustCompile(`(?i)\bhost\s*=\s*([\w.\-]+)`)
	portRe    = regexp.MustCompile(`(?i)\bport\s*=\s*(\d+)`)
	serviceRe = regexp.MustCompile(`(?i)\bservice_name\s*=\s*([\w.\-]+)`)
)

// Resolver resolves connect strings. AliasFile may be empty, which disables form 4.
type Resolver struct {
	AliasFile string
}

func New(aliasFile string) *Resolver {
	return &Resolver{AliasFile: aliasFile}
}

// Resolve returns the Endpoint for connectString. walletPath, when non-empty,
// names the wallet ZIP whose tnsnames.ora holds the alias.
func (r *Resolver) Resolve(connectString, walletPath string) (Endpoint, error) {
	cs := strings.TrimSpace(connectString)
	if cs == "" {
		return Endpoint{}, resolutionErr(connectString, "connect string is empty")
	}

	if walletPath != "" {
		aliases, err := ReadWalletAliases(walletPath)
		if err != nil {
			return Endpoint{}, err
		}
		desc, ok := aliases.Lookup(cs)
		if !ok {
			return Endpoint{}, resolutionErr(cs, "service not found in wallet %s", walletPath)
		}
		return parseKeyed(cs, desc)
	}

	switch {
	case strings.Contains(cs, ":"):
		return parseEZConnect(cs)
	case strings.Contains(cs, "="):
		return parseKeyed(cs, cs)
	}

	if r.AliasFile == "" {
		return Endpoint{}, resolutionErr(cs, "not a recognised connect string and no tnsnames.ora is configured")
	}
	aliases, err := ReadAliasFile(r.AliasFile)
	if err != nil {
		return Endpoint{}, err
	}
	desc, ok := aliases.Lookup(cs)
	if !ok {
		return Endpoint{}, resolutionErr(cs, "alias not found in %s", r.AliasFile)
	}
	return parseKeyed(cs, desc)
}

// parseKeyed extracts HOST=, PORT= and SERVICE_NAME= from text. When a key
// occurs more than once the first occurrence wins.
func parseKeyed(cs, text string) (Endpoint, error) {
	hm := hostRe.FindStringSubmatch(text)
	if hm == nil {
		return Endpoint{}, resolutionErr(cs, "no HOST= in descriptor")
	}
	pm := portRe.FindStringSubmatch(text)
	if pm == nil {
		return Endpoint{}, resolutionErr(cs, "no PORT= in descriptor")
	}
	port, err := parsePort(cs, pm[1])
	if err != nil {
		return Endpoint{}, err
	}
	ep := Endpoint{Host: hm[1], Port: port}
	if sm := serviceRe.FindStringSubmatch(text); sm != nil {
		ep.Service = sm[1]
	}
	return ep, nil
}

// parseEZConnect handles [scheme://][//]host:port[/service[:server][/instance]].
// Bracketed IPv6 hosts are accepted.
func parseEZConnect(cs string) (Endpoint, error) {
	s := cs
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "//")

	var host, rest string
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return Endpoint{}, resolutionErr(cs, "unterminated IPv6 host")
		}
		host, rest = s[1:end], s[end+1:]
		if !strings.HasPrefix(rest, ":") {
			return Endpoint{}, resolutionErr(cs, "missing port")
		}
		rest = rest[1:]
	} else {
		i := strings.Index(s, ":")
		if i < 0 {
			return Endpoint{}, resolutionErr(cs, "missing port")
		}
		host, rest = s[:i], s[i+1:]
	}
	if host == "" {
		return Endpoint{}, resolutionErr(cs, "missing host")
	}

	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	port, err := parsePort(cs, rest[:n])
	if err != nil {
		return Endpoint{}, err
	}

	ep := Endpoint{Host: host, Port: port}
	if tail := rest[n:]; strings.HasPrefix(tail, "/") {
		svc := tail[1:]
		if i := strings.IndexAny(svc, ":/?"); i >= 0 {
			svc = svc[:i]
		}
		ep.Service = svc
	}
	return ep, nil
}

func parsePort(cs, digits string) (int, error) {
	if len(digits) < 1 || len(digits) > 5 {
		return 0, resolutionErr(cs, "port must be 1 to 5 digits, got %q", digits)
	}
	port, err := strconv.Atoi(digits)
	if err != nil {
		return 0, resolutionErr(cs, "invalid port %q", digits)
	}
	return port, nil
}

package resolver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ezConnectRe = regexp.MustCompile(`[a-zA-Z0-9./?:\-_]+:(\d)+[/][a-zA-Z0-9./?:\-_]+`)

// Validate checks a connect string before it is saved. The returned error's
// message is meant for the operator as-is; nil means the string is usable.
func (r *Resolver) Validate(connectString, walletPath string) error {
	cs := strings.TrimSpace(connectString)
	if cs == "" {
		return errors.New("You must supply a connect string.")
	}

	if walletPath != "" {
		aliases, err := ReadWalletAliases(walletPath)
		if err != nil {
			if errors.Is(err, ErrWalletNotFound) {
				return fmt.Errorf("The wallet, %s, could not be found.", walletPath)
			}
			return fmt.Errorf("Unable to read tnsnames.ora from the wallet: %s", walletPath)
		}
		desc, ok := aliases.Lookup(cs)
		if !ok {
			return fmt.Errorf("The service_name, %s, could not be found in tnsnames.ora, contained in the wallet: %s", cs, walletPath)
		}
		return checkDescriptor(cs, desc)
	}

	if r.AliasFile != "" {
		if aliases, err := ReadAliasFile(r.AliasFile); err == nil {
			if desc, ok := aliases.Lookup(cs); ok {
				return checkDescriptor(cs, desc)
			}
		}
	}

	switch {
	case strings.Contains(cs, ":"):
		if !ezConnectRe.MatchString(cs) {
			return errors.New("This looks like a malformed EZ Connect string - please correct.")
		}
		if _, err := parseEZConnect(cs); err != nil {
			return errors.New("This looks like a malformed EZ Connect string - please correct.")
		}
		return nil
	case strings.Contains(cs, "="):
		if hostRe.MatchString(cs) && portRe.MatchString(cs) && serviceRe.MatchString(cs) {
			if _, err := parseKeyed(cs, cs); err == nil {
				return nil
			}
		}
		return errors.New("Cannot parse, what appears to be, a verbose connect string - please check syntax")
	}
	return errors.New("TNS Connect String not resolved / recognised.")
}

// checkDescriptor rejects an alias whose tnsnames.ora entry lacks a usable
// HOST= or PORT=.
func checkDescriptor(cs, desc string) error {
	if _, err := parseKeyed(cs, desc); err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			return fmt.Errorf("The tnsnames.ora entry for %s cannot be used: %s", cs, re.Reason)
		}
		return err
	}
	return nil
}

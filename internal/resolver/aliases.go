package resolver

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

const aliasFileName = "tnsnames.ora"

var (
	ErrWalletNotFound   = errors.New("wallet file not found")
	ErrAliasFileMissing = errors.New("tnsnames.ora not found")
)

// Aliases maps a net service alias (case-insensitive) to its descriptor text.
type Aliases map[string]string

// Lookup returns the descriptor for alias.
func (a Aliases) Lookup(alias string) (string, bool) {
	d, ok := a[strings.ToLower(strings.TrimSpace(alias))]
	return d, ok
}

// Names returns the lower-cased aliases in no particular order.
func (a Aliases) Names() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	return out
}

// ParseAliases reads tnsnames.ora text. Carriage returns are ignored, '#'
// lines are comments, and a record may be folded over several lines. A
// record ends at a blank line, even when its parentheses do not balance, or
// when they balance and the next line starts a new entry.
func ParseAliases(text string) Aliases {
	out := Aliases{}
	var (
		cur   strings.Builder
		depth int
	)

	flush := func() {
		rec := strings.TrimSpace(cur.String())
		cur.Reset()
		depth = 0
		if rec == "" {
			return
		}
		eq := strings.Index(rec, "=")
		if eq <= 0 {
			return
		}
		desc := strings.TrimSpace(rec[eq+1:])
		for _, name := range strings.Split(rec[:eq], ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if _, dup := out[name]; !dup {
				out[name] = desc
			}
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		if depth <= 0 && strings.Contains(cur.String(), "(") {
			flush()
		}
		cur.WriteString(trimmed)
		cur.WriteString(" ")
		depth += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
	}
	flush()
	return out
}

// ReadAliasFile parses a tnsnames.ora file on disk.
func ReadAliasFile(p string) (Aliases, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAliasFileMissing, p)
		}
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(string(data)), nil
}

// ReadWalletAliases opens a wallet ZIP and parses its tnsnames.ora entry.
func ReadWalletAliases(walletPath string) (Aliases, error) {
	if _, err := os.Stat(walletPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, walletPath)
	}
	zr, err := zip.OpenReader(walletPath)
	if err != nil {
		return nil, fmt.Errorf("open wallet %s: %w", walletPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(path.Base(f.Name), aliasFileName) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in wallet: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in wallet: %w", f.Name, err)
		}
		return ParseAliases(string(data)), nil
	}
	return nil, fmt.Errorf("%w in wallet %s", ErrAliasFileMissing, walletPath)
}

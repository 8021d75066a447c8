package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// actionLogPath derives the log written next to an export file: the .json
// extension is replaced with suffix, e.g. conns.json -> conns_exp.log.
func actionLogPath(bundlePath, suffix string) string {
	base := bundlePath
	if strings.EqualFold(filepath.Ext(base), ".json") {
		base = base[:len(base)-len(".json")]
	}
	return base + suffix
}

// writeActionLog appends one run's feedback to path. Runs are separated by a
// header carrying a fresh run id so repeated imports into the same log stay
// distinguishable.
func writeActionLog(path, operation string, feedback []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create action log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1,
		MaxBackups: 5,
	}
	defer lj.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s run %s at %s ===\n", operation, uuid.NewString(), time.Now().Format(time.RFC3339))
	for _, line := range feedback {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := lj.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write action log: %w", err)
	}
	return nil
}

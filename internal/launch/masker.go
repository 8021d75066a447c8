package launch

import (
	"io"
	"strings"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

const redactedPlaceholder = "[REDACTED_BY_DCCM]"

// MaskingWriter replaces every occurrence of a password with
// [REDACTED_BY_DCCM] before passing bytes on. The tail of each write is held
// back so a password split across two writes is still caught.
type MaskingWriter struct {
	mu      sync.Mutex
	out     io.Writer
	matcher aho.AhoCorasick
	keep    int // bytes withheld between writes: longest secret - 1
	buf     []byte
	active  bool
}

// NewMaskingWriter masks the given secrets. Empty secrets are ignored; with
// none left the writer passes bytes straight through.
func NewMaskingWriter(out io.Writer, secrets []string) *MaskingWriter {
	mw := &MaskingWriter{out: out}

	var patterns []string
	longest := 0
	for _, s := range secrets {
		if s == "" {
			continue
		}
		patterns = append(patterns, s)
		if len(s) > longest {
			longest = len(s)
		}
	}
	if len(patterns) == 0 {
		return mw
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{})
	mw.matcher = builder.Build(patterns)
	mw.keep = longest - 1
	mw.active = true
	return mw
}

// Write implements io.Writer.
func (mw *MaskingWriter) Write(p []byte) (int, error) {
	if !mw.active {
		return mw.out.Write(p)
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.buf = append(mw.buf, p...)
	if err := mw.drain(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush emits whatever is still held back.
func (mw *MaskingWriter) Flush() error {
	if !mw.active {
		return nil
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.drain(true)
}

func (mw *MaskingWriter) drain(all bool) error {
	if len(mw.buf) == 0 {
		return nil
	}

	limit := len(mw.buf)
	if !all {
		limit -= mw.keep
		if limit <= 0 {
			return nil
		}
	}

	// Matches are searched over the whole buffer so one that straddles limit
	// is consumed now rather than split.
	var out strings.Builder
	pos, consumed := 0, limit
	for _, m := range mw.matcher.FindAll(string(mw.buf)) {
		if m.Start() < pos {
			continue
		}
		if m.Start() >= limit && !all {
			break
		}
		out.Write(mw.buf[pos:m.Start()])
		out.WriteString(redactedPlaceholder)
		pos = m.End()
		if pos > consumed {
			consumed = pos
		}
	}
	if pos < limit {
		out.Write(mw.buf[pos:limit])
	}

	if out.Len() > 0 {
		if _, err := io.WriteString(mw.out, out.String()); err != nil {
			return err
		}
	}
	mw.buf = append([]byte(nil), mw.buf[consumed:]...)
	return nil
}

// Mask returns s with every secret redacted.
func Mask(s string, secrets []string) string {
	var b strings.Builder
	mw := NewMaskingWriter(&b, secrets)
	_, _ = mw.Write([]byte(s))
	_ = mw.Flush()
	return b.String()
}

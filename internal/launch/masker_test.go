package launch

import (
	"bytes"
	"testing"
)

func TestMaskingWriter_Basic(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMaskingWriter(&buf, []string{"tiger", "lion"})

	mw.Write([]byte("SCOTT/tiger@db and lion too"))
	mw.Flush()

	want := "SCOTT/[REDACTED_BY_DCCM]@db and [REDACTED_BY_DCCM] too"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMaskingWriter_SplitAcrossWrites(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMaskingWriter(&buf, []string{"s3cr3tpw"})

	mw.Write([]byte("connecting as SCOTT/s3cr"))
	mw.Write([]byte("3tpw@prod"))
	mw.Flush()

	if got, want := buf.String(), "connecting as SCOTT/[REDACTED_BY_DCCM]@prod"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMaskingWriter_Passthrough(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMaskingWriter(&buf, []string{""})
	mw.Write([]byte("untouched"))
	mw.Flush()
	if got := buf.String(); got != "untouched" {
		t.Fatalf("got %q", got)
	}
}

func TestMask(t *testing.T) {
	got := Mask("sql SCOTT/tiger@db", []string{"tiger"})
	if got != "sql SCOTT/[REDACTED_BY_DCCM]@db" {
		t.Fatalf("got %q", got)
	}
}

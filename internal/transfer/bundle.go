// Package transfer exports connection catalogues to portable JSON files and
// imports them back, either from dccm's own format or from a SQL Developer
// connections export.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// SourceTag marks a native export header.
	SourceTag = "dccm"
	// legacySourceTag is written by the Python releases of dccm.
	legacySourceTag = "dccm.py"
	// legacyFormat exports predate SSH tunnelling and client tool options.
	legacyFormat = "1.0.0"
)

var ErrUnrecognisedFormat = errors.New("unrecognised export file format")

// Header is the first element of a native export.
type Header struct {
	DataSource   string `json:"data_source"`
	Version      string `json:"version"`
	ExportMatch  string `json:"export_match"`
	PasswordHash string `json:"password_hash"`
}

// Protected reports whether secrets in the bundle are encrypted with an
// export password.
func (h Header) Protected() bool {
	return h.PasswordHash != ""
}

// YN is a boolean stored as "Y" or "N".
type YN bool

func (b YN) MarshalJSON() ([]byte, error) {
	if b {
		return []byte(`"Y"`), nil
	}
	return []byte(`"N"`), nil
}

func (b *YN) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var v bool
		if err2 := json.Unmarshal(data, &v); err2 != nil {
			return fmt.Errorf("yes/no flag: %w", err)
		}
		*b = YN(v)
		return nil
	}
	*b = YN(strings.EqualFold(strings.TrimSpace(s), "Y"))
	return nil
}

// Port tolerates the empty string older exports write for "no port".
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("listener port %q: %w", s, err)
		}
		*p = Port(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("listener port: %w", err)
	}
	*p = Port(n)
	return nil
}

// Record is one exported connection. Field names follow the on-disk format
// shared with earlier releases.
type Record struct {
	DatabaseType      string `json:"database_type"`
	ConnectionType    string `json:"connection_type"`
	AccountName       string `json:"db_account_name"`
	ConnectString     string `json:"connect_string"`
	VaultProfile      string `json:"oci_profile"`
	Secret            string `json:"ocid"`
	WalletRequired    YN     `json:"wallet_required_yn"`
	WalletLocation    string `json:"wallet_location"`
	ClientTool        string `json:"client_tool"`
	ClientToolOptions string `json:"client_tool_options"`
	StartDirectory    string `json:"start_directory"`
	SSHTunnelRequired YN     `json:"ssh_tunnel_required_yn"`
	SSHTunnelCode     string `json:"ssh_tunnel_code"`
	ListenerPort      Port   `json:"listener_port"`
	Description       string `json:"description"`
	Banner            string `json:"connection_banner,omitempty"`
	Message           string `json:"connection_message,omitempty"`
	TextColour        string `json:"connection_text_colour,omitempty"`
	Base64Wallet      string `json:"base64_wallet"`
}

// Bundle is a classified import file: *NativeBundle or *ThirdPartyBundle.
type Bundle interface {
	dialect() string
}

// NativeBundle is a dccm export: a header followed by records keyed by
// connection identifier.
type NativeBundle struct {
	Header Header
	Body   map[string]Record
}

func (*NativeBundle) dialect() string { return "native" }

// ThirdPartyConnection is one entry of a SQL Developer connections export.
type ThirdPartyConnection struct {
	Name string         `json:"name"`
	Type string         `json:"type,omitempty"`
	Info map[string]any `json:"info"`
}

// ThirdPartyBundle is a SQL Developer connections export.
type ThirdPartyBundle struct {
	Connections []ThirdPartyConnection `json:"connections"`
}

func (*ThirdPartyBundle) dialect() string { return "sql_developer" }

// Classify parses data and returns the matching bundle variant.
func Classify(data []byte) (Bundle, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnrecognisedFormat)
	}

	switch data[0] {
	case '[':
		return decodeNative(data)
	case '{':
		return decodeThirdParty(data)
	}
	return nil, ErrUnrecognisedFormat
}

func decodeNative(data []byte) (*NativeBundle, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("parse export file: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected a header and a body, found %d elements", ErrUnrecognisedFormat, len(parts))
	}

	var b NativeBundle
	if err := json.Unmarshal(parts[0], &b.Header); err != nil {
		return nil, fmt.Errorf("parse export header: %w", err)
	}
	if b.Header.DataSource != SourceTag && b.Header.DataSource != legacySourceTag {
		return nil, fmt.Errorf("%w: unknown data source %q", ErrUnrecognisedFormat, b.Header.DataSource)
	}
	if err := json.Unmarshal(parts[1], &b.Body); err != nil {
		return nil, fmt.Errorf("parse export body: %w", err)
	}
	if b.Body == nil {
		b.Body = map[string]Record{}
	}
	return &b, nil
}

func decodeThirdParty(data []byte) (*ThirdPartyBundle, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse export file: %w", err)
	}
	if _, ok := probe["connections"]; !ok {
		return nil, fmt.Errorf("%w: no connections list", ErrUnrecognisedFormat)
	}
	var b ThirdPartyBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse connections list: %w", err)
	}
	return &b, nil
}

// infoString returns info[key] as a string; numbers are formatted without
// a fractional part.
func infoString(info map[string]any, key string) string {
	switch v := info[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

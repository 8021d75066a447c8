// Package registry manages saved connection profiles. Passwords are
// encrypted before they reach the store and decrypted on read.
package registry

import (
	"fmt"
	"strings"
)

// ManagementKind says where a profile's password lives.
type ManagementKind string

const (
	Legacy       ManagementKind = "Legacy"
	VaultManaged ManagementKind = "OCI Vault"
)

func ParseManagementKind(s string) (ManagementKind, error) {
	switch strings.TrimSpace(s) {
	case string(Legacy):
		return Legacy, nil
	case string(VaultManaged), "VaultManaged":
		return VaultManaged, nil
	}
	return "", fmt.Errorf("unknown management kind %q", s)
}

// DefaultDatabaseKind is the only database kind dccm currently drives.
const DefaultDatabaseKind = "Oracle"

// Profile is a saved connection with its password in plaintext. For
// VaultManaged profiles Secret holds the vault secret OCID.
type Profile struct {
	Identifier        string         `json:"connection_id" validate:"required"`
	DatabaseKind      string         `json:"database_type" validate:"required"`
	ManagementKind    ManagementKind `json:"connection_type" validate:"required,management_kind"`
	AccountName       string         `json:"db_account_name" validate:"required"`
	ConnectString     string         `json:"connect_string" validate:"required"`
	VaultProfile      string         `json:"oci_profile"`
	Secret            string         `json:"-"`
	WalletRequired    bool           `json:"wallet_required"`
	WalletPath        string         `json:"wallet_location"`
	ClientTool        string         `json:"client_tool" validate:"required"`
	ClientToolOptions string         `json:"client_tool_options"`
	StartDirectory    string         `json:"start_directory"`
	SSHTunnelRequired bool           `json:"ssh_tunnel_required"`
	SSHTemplate       string         `json:"ssh_tunnel_code"`
	ListenerPort      int            `json:"listener_port" validate:"gte=0,lte=99999"`
	Description       string         `json:"description"`
	Banner            string         `json:"connection_banner" validate:"omitempty,banner_kind"`
	Message           string         `json:"connection_message"`
	TextColour        string         `json:"connection_text_colour" validate:"omitempty,banner_colour"`
}

// Wallet returns the wallet path when the profile requires one, else "".
func (p *Profile) Wallet() string {
	if p.WalletRequired {
		return p.WalletPath
	}
	return ""
}

func (p *Profile) normalize() {
	p.Identifier = strings.TrimSpace(p.Identifier)
	p.AccountName = strings.TrimSpace(p.AccountName)
	p.ConnectString = strings.TrimSpace(p.ConnectString)
	p.WalletPath = strings.TrimSpace(p.WalletPath)
	p.StartDirectory = strings.TrimSpace(p.StartDirectory)
	if p.DatabaseKind == "" {
		p.DatabaseKind = DefaultDatabaseKind
	}
	if p.Banner == "" {
		p.Banner = "None"
	}
	if p.TextColour == "" {
		p.TextColour = "None"
	}
	if !p.WalletRequired {
		p.WalletPath = ""
	}
	if !p.SSHTunnelRequired {
		p.SSHTemplate = ""
	}
}

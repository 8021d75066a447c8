package store

import "time"

// ConnectionRow is a connection profile as persisted. Secret holds ciphertext.
type ConnectionRow struct {
	ID                string
	DatabaseType      string
	ConnectionType    string
	AccountName       string
	ConnectString     string
	VaultProfile      string
	Secret            string
	WalletRequired    bool
	WalletLocation    string
	ClientTool        string
	ClientToolOptions string
	StartDirectory    string
	SSHTunnelRequired bool
	SSHTunnelTemplate string
	ListenerPort      int
	Description       string
	Banner            string
	Message           string
	TextColour        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PreferenceRow is one (scope, name) keyed preference entry.
type PreferenceRow struct {
	Scope string    `json:"scope"`
	Name  string    `json:"preference_name"`
	Value string    `json:"preference_value"`
	Label string    `json:"preference_label"`
	Attrs [5]string `json:"-"`
}

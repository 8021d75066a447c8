// Package vault fetches connection passwords held in OCI Vault.
package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrEmptySecret = errors.New("vault returned an empty secret")

// Request identifies a secret and the OCI credentials used to read it.
type Request struct {
	ConfigFile string
	Profile    string
	SecretID   string
}

// Fetcher retrieves the plaintext of a secret.
type Fetcher interface {
	FetchSecret(ctx context.Context, req Request) (string, error)
}

// OCICLI fetches secrets by shelling out to the oci command line tool.
type OCICLI struct {
	// Binary defaults to "oci".
	Binary string
	// run is swapped out in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewOCICLI() *OCICLI {
	return &OCICLI{Binary: "oci"}
}

func (o *OCICLI) FetchSecret(ctx context.Context, req Request) (string, error) {
	if req.SecretID == "" {
		return "", fmt.Errorf("secret id is required")
	}
	args := []string{"secrets", "secret-bundle", "get", "--secret-id", req.SecretID}
	if req.ConfigFile != "" {
		args = append(args, "--config-file", req.ConfigFile)
	}
	if req.Profile != "" {
		args = append(args, "--profile", req.Profile)
	}

	run := o.run
	if run == nil {
		run = runCommand
	}
	bin := o.Binary
	if bin == "" {
		bin = "oci"
	}
	out, err := run(ctx, bin, args...)
	if err != nil {
		return "", fmt.Errorf("fetch secret %s: %w", req.SecretID, err)
	}
	return decodeBundle(out)
}

type secretBundle struct {
	Data struct {
		Content struct {
			ContentType string `json:"content-type"`
			Content     string `json:"content"`
		} `json:"secret-bundle-content"`
	} `json:"data"`
}

func decodeBundle(out []byte) (string, error) {
	var b secretBundle
	if err := json.Unmarshal(out, &b); err != nil {
		return "", fmt.Errorf("decode secret bundle: %w", err)
	}
	c := b.Data.Content
	if c.Content == "" {
		return "", ErrEmptySecret
	}
	if !strings.EqualFold(c.ContentType, "BASE64") {
		return c.Content, nil
	}
	plain, err := base64.StdEncoding.DecodeString(c.Content)
	if err != nil {
		return "", fmt.Errorf("decode secret content: %w", err)
	}
	return string(plain), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

package registry

import (
	"errors"
	"fmt"

	"github.com/aspect-build/dccm/internal/banner"
	"github.com/go-playground/validator/v10"
)

var fieldMessages = map[string]string{
	"Identifier":     "You must supply a Connection Identifier",
	"DatabaseKind":   "You must supply a Database Type",
	"ManagementKind": "You must select a valid Connection Type",
	"AccountName":    "You must supply a Database Account Name",
	"ConnectString":  "You must supply a Connect String",
	"ClientTool":     "You must select a Client Tool",
	"ListenerPort":   "Listener Port must be between 0 and 99999",
	"Banner":         "Unrecognised Connection Banner",
	"TextColour":     "Unrecognised Connection Text Colour",
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("management_kind", func(fl validator.FieldLevel) bool {
		_, err := ParseManagementKind(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("banner_kind", func(fl validator.FieldLevel) bool {
		return banner.ValidKind(fl.Field().String())
	})
	_ = v.RegisterValidation("banner_colour", func(fl validator.FieldLevel) bool {
		return banner.ValidColour(fl.Field().String())
	})
	v.RegisterStructValidation(profileRules, Profile{})
	return v
}

// profileRules holds the cross-field requirements.
func profileRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(Profile)
	if p.Secret == "" {
		if p.ManagementKind == VaultManaged {
			sl.ReportError(p.Secret, "Secret", "Secret", "secret_ocid", "")
		} else {
			sl.ReportError(p.Secret, "Secret", "Secret", "password", "")
		}
	}
	if p.ManagementKind == VaultManaged && p.VaultProfile == "" {
		sl.ReportError(p.VaultProfile, "VaultProfile", "VaultProfile", "vault_profile", "")
	}
	if p.WalletRequired && p.WalletPath == "" {
		sl.ReportError(p.WalletPath, "WalletPath", "WalletPath", "wallet", "")
	}
	if p.SSHTunnelRequired && p.SSHTemplate == "" {
		sl.ReportError(p.SSHTemplate, "SSHTemplate", "SSHTemplate", "ssh_template", "")
	}
}

var ruleMessages = map[string]string{
	"password":      "You must supply a Password",
	"secret_ocid":   "You must supply the Vault Secret OCID",
	"vault_profile": "You must supply an OCI Profile for vault-managed connections",
	"wallet":        "You must supply a Wallet Location when a wallet is required",
	"ssh_template":  "You must select an SSH Tunnel Template when tunnelling is required",
}

// translate converts validator output into ValidationErrors.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := ruleMessages[fe.Tag()]
		if !ok {
			msg, ok = fieldMessages[fe.Field()]
		}
		if !ok {
			msg = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		out = append(out, &ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}

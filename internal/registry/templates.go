package registry

import (
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/prefs"
)

// ClientToolUsage lists profiles that launch with client tool name.
func (r *Registry) ClientToolUsage(name string) ([]string, error) {
	return r.st.ConnectionsUsingClientTool(name)
}

// SSHTemplateUsage lists profiles that tunnel through template name.
func (r *Registry) SSHTemplateUsage(name string) ([]string, error) {
	return r.st.ConnectionsUsingSSHTemplate(name)
}

// DeleteClientTool removes a client tool template unless it is built in or
// still referenced.
func (r *Registry) DeleteClientTool(name string) error {
	if name == prefs.ReservedClientTool {
		return ErrReservedTemplate
	}
	users, err := r.ClientToolUsage(name)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return &TemplateInUseError{Kind: "client tool", Name: name, UsedBy: users}
	}
	return r.deleteTemplate(prefs.ScopeClientTools, name)
}

// DeleteSSHTemplate removes an SSH tunnel template unless it is still referenced.
func (r *Registry) DeleteSSHTemplate(name string) error {
	users, err := r.SSHTemplateUsage(name)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return &TemplateInUseError{Kind: "SSH template", Name: name, UsedBy: users}
	}
	return r.deleteTemplate(prefs.ScopeSSHTemplates, name)
}

func (r *Registry) deleteTemplate(scope prefs.Scope, name string) error {
	ok, err := r.prefs.Delete(scope, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTemplateNotFound
	}
	logx.Infof("%s template %s deleted", scope, name)
	return nil
}

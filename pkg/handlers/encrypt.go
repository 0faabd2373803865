package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/pdf"
	"github.com/jdziat/pdfbatch/pkg/security"
)

// Encrypt settings keys.
const (
	SettingPassword      = "password"
	SettingOwnerPassword = "owner_password"
	SettingAllowPrint    = "allow_print"
	SettingAllowModify   = "allow_modify"
	SettingAllowCopy     = "allow_copy"
	SettingAllowAnnotate = "allow_annotate"
)

// Encrypt writes a password protected encrypted_<base>.pdf for every input.
type Encrypt struct {
	Engine pdf.Engine
}

// Handle implements Handler.
func (h *Encrypt) Handle(ctx context.Context, job *core.Job) error {
	user := job.Settings.String(SettingPassword, "")
	if err := security.ValidatePassword(user); err != nil {
		return invalidSetting(SettingPassword, err)
	}
	owner := job.Settings.String(SettingOwnerPassword, user+"_owner")
	perms, err := permissions(job.Settings)
	if err != nil {
		return err
	}

	if err := prepare(job); err != nil {
		return err
	}

	var outputs []string
	err = eachInput(ctx, job, func(_ int, in string) error {
		out := filepath.Join(job.OutputDir, fmt.Sprintf("encrypted_%s.pdf", baseName(in)))
		if err := h.Engine.Encrypt(in, out, user, owner, perms); err != nil {
			return err
		}
		outputs = append(outputs, out)
		return nil
	})
	job.Outputs = outputs
	return err
}

// permissions reads the allow_* settings over the default permissions.
func permissions(s core.Settings) (pdf.Permissions, error) {
	p := pdf.DefaultPermissions()
	for _, f := range []struct {
		key string
		dst *bool
	}{
		{SettingAllowPrint, &p.Print},
		{SettingAllowModify, &p.Modify},
		{SettingAllowCopy, &p.Copy},
		{SettingAllowAnnotate, &p.Annotate},
	} {
		v, err := s.Bool(f.key, *f.dst)
		if err != nil {
			return p, invalidSetting(f.key, err)
		}
		*f.dst = v
	}
	return p, nil
}

package mail

import (
	"bytes"
	"fmt"
	"text/template"
)

var registrationTmpl = template.Must(template.New("registration").Parse(`Olá, {{.Name}}!

Você foi cadastrado(a) {{.Context}}.

Para acessar o sistema, utilize os dados abaixo:

E-mail: {{.Email}}
{{- if .Password}}
Senha provisória: {{.Password}}
{{- end}}

Acesse: {{.AppURL}}

Recomendamos alterar a senha no primeiro acesso.
`))

// Registration describes a registration e-mail.
type Registration struct {
	Name     string
	Email    string
	Password string // empty when the person has no account yet
	Context  string // e.g. "como membro do grupo ENT"
	AppURL   string
}

// RegistrationMessage renders the registration e-mail.
func RegistrationMessage(r Registration) (Message, error) {
	if r.Context == "" {
		r.Context = "no sistema de gestão de grupos"
	}
	var body bytes.Buffer
	if err := registrationTmpl.Execute(&body, r); err != nil {
		return Message{}, fmt.Errorf("render registration mail: %w", err)
	}
	return Message{
		To:      r.Email,
		Subject: "Cadastro no sistema de gestão de grupos",
		Body:    body.String(),
	}, nil
}

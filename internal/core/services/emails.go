package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "welcome"}}<p>Hola {{.Name}},</p>
<p>Se ha creado tu cuenta en el sistema de reservas de espacios.</p>
<p>Tu contraseña temporal es: <strong>{{.Password}}</strong></p>
<p>Deberás cambiarla al iniciar sesión por primera vez.</p>{{end}}
{{define "reset"}}<p>Hola {{.Name}},</p>
<p>Tu contraseña ha sido restablecida.</p>
<p>Tu nueva contraseña temporal es: <strong>{{.Password}}</strong></p>
<p>Deberás cambiarla al iniciar sesión.</p>{{end}}
{{define "changed"}}<p>Hola {{.Name}},</p>
<p>Te confirmamos que la contraseña de tu cuenta fue cambiada correctamente.</p>
<p>Si no realizaste este cambio, contacta con un administrador.</p>{{end}}
`))

type emailData struct {
	Name     string
	Password string
}

func renderEmail(to, subject, name string, data emailData) (ports.Email, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return ports.Email{}, fmt.Errorf("rendering %s email: %w", name, err)
	}
	return ports.Email{To: to, Subject: subject, HTML: buf.String()}, nil
}

func welcomeEmail(to, userName, password string) (ports.Email, error) {
	return renderEmail(to, "Bienvenido al sistema de reservas", "welcome", emailData{Name: userName, Password: password})
}

func resetEmail(to, userName, password string) (ports.Email, error) {
	return renderEmail(to, "Restablecimiento de contraseña", "reset", emailData{Name: userName, Password: password})
}

func passwordChangedEmail(to, userName string) (ports.Email, error) {
	return renderEmail(to, "Contraseña actualizada", "changed", emailData{Name: userName})
}

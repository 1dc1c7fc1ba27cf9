package emails

import (
	"bytes"
	"fmt"
	"html/template"
)

type verificationData struct {
	Name string
	Link string
	App  string
}

var verificationTmpl = template.Must(template.New("email-verification").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>Welcome to {{.App}}! Please confirm your email address by clicking the link below.</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
</body>
</html>`))

var passwordResetTmpl = template.Must(template.New("forgot-password").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>We received a request to reset your {{.App}} password. Click the link below to choose a new one.</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>This link expires in 24 hours. If you did not request a reset, you can ignore this email.</p>
</body>
</html>`))

func renderVerification(data verificationData) (string, error) {
	return render(verificationTmpl, data)
}

func renderPasswordReset(data verificationData) (string, error) {
	return render(passwordResetTmpl, data)
}

func render(tmpl *template.Template, data verificationData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"storagify/file-api/internal/model"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4CAF50;">Welcome to {{.App}}, {{.Username}}!</h2>
  <p>Thanks for registering. You can now:</p>
  <ul>
    <li>Upload files up to {{.MaxSize}} MB</li>
    <li>Upload images and videos</li>
    <li>Get an email every time an upload finishes</li>
  </ul>
  <p style="color: #666; font-size: 12px; border-top: 1px solid #eee; padding-top: 10px;">
    This is an automated notification. Please do not reply to this email.
  </p>
</div>`))

var uploadedTmpl = template.Must(template.New("uploaded").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4CAF50;">File uploaded</h2>
  <p>Hi {{.Username}}, your file "{{.File.Name}}" was uploaded successfully.</p>
  <ul style="list-style: none; padding: 0;">
    <li><strong>Name:</strong> {{.File.Name}}</li>
    <li><strong>Size:</strong> {{.SizeKB}} KB</li>
    <li><strong>Format:</strong> {{.File.Format}}</li>
    <li><strong>Uploaded:</strong> {{.UploadedAt}}</li>
    <li><a href="{{.File.URL}}" style="color: #2196F3;">Open your file</a></li>
  </ul>
  <p style="color: #666; font-size: 12px; border-top: 1px solid #eee; padding-top: 10px;">
    This is an automated notification. Please do not reply to this email.
  </p>
</div>`))

func welcomeMail(app string, maxSize int64, u *model.User) (Mail, error) {
	var buf bytes.Buffer

	err := welcomeTmpl.Execute(&buf, map[string]any{
		"App":      app,
		"Username": u.Username,
		"MaxSize":  maxSize,
	})
	if err != nil {
		return Mail{}, fmt.Errorf("failed to render welcome mail, %w", err)
	}

	return Mail{
		To:      u.Email,
		Subject: "Welcome to " + app + "!",
		HTML:    buf.String(),
	}, nil
}

func uploadedMail(u *model.User, f *model.File) (Mail, error) {
	var buf bytes.Buffer

	err := uploadedTmpl.Execute(&buf, map[string]any{
		"Username":   u.Username,
		"File":       f,
		"SizeKB":     fmt.Sprintf("%.2f", float64(f.Size)/1024),
		"UploadedAt": f.UploadedAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return Mail{}, fmt.Errorf("failed to render upload mail, %w", err)
	}

	return Mail{
		To:      u.Email,
		Subject: "File uploaded successfully!",
		HTML:    buf.String(),
	}, nil
}

package templates

import (
	"bytes"
	"html/template"
	"strings"
)

// NotificationEmailData fills the shared layout for account emails.
type NotificationEmailData struct {
	Logo       string
	Subject    string
	Paragraphs []string
	Year       int
}

const notificationHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>{{.Subject}}</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f4f1ec;
      color: #3b3129;
    }
    .email-container {
      width: 100%;
      max-width: 600px;
      margin: 0 auto;
      background-color: #ffffff;
      border-radius: 6px;
      overflow: hidden;
      box-shadow: 0 2px 5px rgba(0,0,0,0.1);
    }
    .header {
      background-color: #6b4f3a;
      padding: 20px;
      text-align: center;
      color: #fff;
    }
    .header img {
      width: 120px;
      height: auto;
      margin-bottom: 10px;
    }
    .header h1 {
      margin: 10px 0 0;
      font-size: 22px;
    }
    .content {
      padding: 20px;
      text-align: left;
      line-height: 1.5;
    }
    .footer {
      font-size: 12px;
      color: #999;
      text-align: center;
      padding: 10px 20px;
    }
  </style>
</head>
<body>
  <table class="email-container" role="presentation" cellspacing="0" cellpadding="0">
    <tr>
      <td>
        <div class="header">
          {{if .Logo}}<img src="{{.Logo}}" alt="FurniHome" />{{end}}
          <h1>{{.Subject}}</h1>
        </div>
        <div class="content">
          {{range .Paragraphs}}<p>{{.}}</p>
          {{end}}
        </div>
        <div class="footer">
          <p>&copy; {{.Year}} FurniHome. You received this email because of activity on your account.</p>
        </div>
      </td>
    </tr>
  </table>
</body>
</html>
`

var notificationTmpl = template.Must(template.New("notification").Parse(notificationHTML))

// SplitParagraphs turns a plain-text body into paragraphs on blank lines.
func SplitParagraphs(body string) []string {
	var out []string
	for _, block := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if p := strings.TrimSpace(block); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func RenderNotificationHTML(data NotificationEmailData) (string, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const baseTemplate = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
  </head>
  <body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
      <tr>
        <td align="center" style="padding: 40px 0;">
          <table role="presentation" style="width: 600px; max-width: 100%; background-color: #ffffff; border-radius: 8px;">
            <tr>
              <td style="padding: 40px 30px; text-align: center;">
                <h1 style="margin: 0 0 20px 0; color: #0f766e; font-size: 28px;">{{.Title}}</h1>
                <p style="margin: 0 0 30px 0; color: #4b5563; font-size: 16px; line-height: 1.5;">{{.Body}}</p>
                {{if .Link}}
                <table role="presentation" style="margin: 0 auto;">
                  <tr>
                    <td style="border-radius: 6px; background-color: #0f766e;">
                      <a href="{{.Link}}" style="display: inline-block; padding: 16px 32px; color: #ffffff; text-decoration: none; font-weight: 600; font-size: 16px;">{{.LinkLabel}}</a>
                    </td>
                  </tr>
                </table>
                <p style="margin: 30px 0 0 0; color: #6b7280; font-size: 14px;">Or copy this link into your browser:</p>
                <p style="margin: 10px 0 0 0; color: #0f766e; font-size: 12px; word-break: break-all;">{{.Link}}</p>
                {{end}}
                <hr style="margin: 30px 0; border: none; border-top: 1px solid #e5e7eb;">
                <p style="margin: 0; color: #9ca3af; font-size: 12px;">{{.Footer}}</p>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`

var emailTemplate = template.Must(template.New("email").Parse(baseTemplate))

type templateData struct {
	Title     string
	Body      string
	Link      string
	LinkLabel string
	Footer    string
}

func render(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}

// VerificationEmail renders the email-verification mail with its deep link.
func VerificationEmail(appURL, token string) (subject, html string, err error) {
	link := fmt.Sprintf("%s/verify-email?token=%s", appURL, token)
	html, err = render(templateData{
		Title:     "Confirm your email address",
		Body:      "Thanks for signing up. Please confirm your email address to activate your account.",
		Link:      link,
		LinkLabel: "Confirm email",
		Footer:    "This link is valid for 24 hours. If you did not create an account, you can ignore this email.",
	})
	return "Confirm your email address", html, err
}

// PasswordResetEmail renders the reset mail with its deep link.
func PasswordResetEmail(appURL, token string) (subject, html string, err error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", appURL, token)
	html, err = render(templateData{
		Title:     "Reset your password",
		Body:      "You requested a password reset. Click the button below to choose a new password.",
		Link:      link,
		LinkLabel: "Choose new password",
		Footer:    "This link is valid for 1 hour. If you did not request this, you can ignore this email.",
	})
	return "Reset your password", html, err
}

// PasswordChangedEmail renders the confirmation sent after a successful reset.
func PasswordChangedEmail() (subject, html string, err error) {
	html, err = render(templateData{
		Title:  "Password changed",
		Body:   "Your password was reset successfully. You can now sign in with your new password.",
		Footer: "If you did not make this change, please contact us immediately.",
	})
	return "Password changed", html, err
}

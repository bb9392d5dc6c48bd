package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
	"tradeidea/internal/pkg/httpclient"
)

const resendBaseURL = "https://api.resend.com"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// EmailChannel sends events through the Resend email API.
type EmailChannel struct {
	http   *httpclient.Client
	from   string
	appURL string
	logger *zap.Logger
}

// NewEmailChannel returns nil when apiKey is empty so callers can skip it.
func NewEmailChannel(apiKey, from, appURL string, logger *zap.Logger) *EmailChannel {
	if apiKey == "" {
		return nil
	}
	return newEmailChannel(resendBaseURL, apiKey, from, appURL, logger)
}

func newEmailChannel(baseURL, apiKey, from, appURL string, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{
		http:   httpclient.New().WithBaseURL(baseURL).WithBearerToken(apiKey).RetryOnServerError(),
		from:   from,
		appURL: strings.TrimRight(appURL, "/"),
		logger: logger.Named("email"),
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Enabled(p *models.Profile) bool {
	return p.NotifyEmail && p.Email != ""
}

func (c *EmailChannel) Send(ctx context.Context, p *models.Profile, event autogen.Event) error {
	html, err := renderEmail(event, c.appURL)
	if err != nil {
		return err
	}
	var resp resendResponse
	err = c.http.PostJSON(ctx, "/emails", resendRequest{
		From:    c.from,
		To:      []string{p.Email},
		Subject: event.Title,
		HTML:    html,
	}, &resp)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	c.logger.Debug("email accepted", zap.String("user_id", p.ID), zap.String("email_id", resp.ID))
	return nil
}

type emailBanner struct {
	Background string
	Border     string
	Color      string
	Heading    string
	Text       string
}

var emailBanners = map[autogen.EventKind]emailBanner{
	autogen.EventSuccess: {
		Background: "#d4edda", Border: "#c3e6cb", Color: "#155724",
		Heading: "New Trade Idea Generated Successfully!",
		Text:    "A new AI-generated trade idea is now available in your dashboard.",
	},
	autogen.EventFailure: {
		Background: "#f8d7da", Border: "#f5c6cb", Color: "#721c24",
		Heading: "Auto-Generation Failed",
		Text:    "We encountered an issue generating your trade idea. Your schedule continues at the next interval.",
	},
	autogen.EventRetry: {
		Background: "#fff3cd", Border: "#ffeaa7", Color: "#856404",
		Heading: "Retry in Progress",
		Text:    "We're retrying the auto-generation process. You'll be notified once it's complete.",
	},
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #f8f9fa; padding: 30px; border-radius: 10px; border: 1px solid #e9ecef;">
    <h2 style="color: #2c3e50; margin-top: 0;">{{.Title}}</h2>
    <p style="font-size: 16px; margin-bottom: 20px;">{{.Message}}</p>
    {{with .Banner}}
    <div style="background: {{.Background}}; border: 1px solid {{.Border}}; border-radius: 5px; padding: 15px; margin: 20px 0;">
      <p style="margin: 0; color: {{.Color}}; font-weight: bold;">{{.Heading}}</p>
      <p style="margin: 10px 0 0 0; color: {{.Color}};">{{.Text}}</p>
    </div>
    {{end}}
    {{if .DashboardURL}}
    <div style="text-align: center; margin: 20px 0;">
      <a href="{{.DashboardURL}}" style="background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">View Trade Ideas</a>
    </div>
    {{end}}
    <p style="color: #6c757d; font-size: 14px; margin-top: 30px; text-align: center;">
      This is an automated notification. You can manage your notification preferences in your account settings.
    </p>
  </div>
</body>
</html>
`))

func renderEmail(event autogen.Event, appURL string) (string, error) {
	data := struct {
		Title        string
		Message      string
		Banner       *emailBanner
		DashboardURL string
	}{
		Title:   event.Title,
		Message: event.Message,
	}
	if b, ok := emailBanners[event.Kind]; ok {
		data.Banner = &b
	}
	if event.Kind == autogen.EventSuccess && appURL != "" {
		data.DashboardURL = appURL + "/dashboard"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

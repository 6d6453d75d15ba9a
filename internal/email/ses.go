package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/vecinet/backend/internal/models"
)

// EmailService sends transactional email via AWS SES
type EmailService struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendExpiryReminder tells a neighbor which of their posts are about to
// expire, with a link to extend each one.
func (e *EmailService) SendExpiryReminder(ctx context.Context, toEmail, name string, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	subject := "Tus anuncios en VeciNet caducan pronto"

	var htmlItems, textItems strings.Builder
	for _, p := range posts {
		url := fmt.Sprintf("%s/posts/%s", e.baseURL, p.ID)
		htmlItems.WriteString(fmt.Sprintf(
			`<li><a href="%s">%s</a> caduca el %s</li>`,
			url, p.Title, p.ExpiresAt.Format("02/01/2006")))
		textItems.WriteString(fmt.Sprintf("- %s caduca el %s: %s\n",
			p.Title, p.ExpiresAt.Format("02/01/2006"), url))
	}

	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			</style>
		</head>
		<body>
			<div class="container">
				<h1>Hola %s</h1>
				<p>Estos anuncios tuyos caducan en los próximos días. Si siguen vigentes, entra y prorrógalos 30 días más.</p>
				<ul>%s</ul>
				<hr>
				<p style="color: #999; font-size: 12px;">Este es un mensaje automático de VeciNet.</p>
			</div>
		</body>
		</html>
	`, name, htmlItems.String())

	textBody := fmt.Sprintf(`Hola %s

Estos anuncios tuyos caducan en los próximos días. Si siguen vigentes, entra y prorrógalos 30 días más.

%s
Este es un mensaje automático de VeciNet.
`, name, textItems.String())

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send expiry reminder: %w", err)
	}
	return nil
}

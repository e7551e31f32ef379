// Package ses emails recommendation digests via AWS SES
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"financial-product-advisor/internal/models"
	"financial-product-advisor/internal/utils"
)

// digestFeatures is the number of features listed per product.
const digestFeatures = 3

// ErrNoSender is returned when no sender address is configured.
var ErrNoSender = errors.New("ses sender email is not configured")

// EmailAPI is the subset of the SES client the service uses.
type EmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    EmailAPI
	fromEmail string
	logger    *zap.Logger
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// DigestParams describes one recommendation digest
type DigestParams struct {
	To             string
	RecipientName  string
	Recommendation models.Recommendation
}

// digestItem is one product line of the digest templates
type digestItem struct {
	Rank     int
	Name     string
	Provider string
	Category string
	Score    float64
	Reason   string
	Features []string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service from the default AWS configuration
func NewService(ctx context.Context, region, fromEmail string, logger *zap.Logger) (*Service, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(ses.NewFromConfig(cfg), fromEmail, logger)
}

// NewWithClient wraps an existing SES client
func NewWithClient(client EmailAPI, fromEmail string, logger *zap.Logger) (*Service, error) {
	if strings.TrimSpace(fromEmail) == "" {
		return nil, ErrNoSender
	}
	return &Service{
		client:    client,
		fromEmail: fromEmail,
		logger:    utils.OrNop(logger),
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	if strings.TrimSpace(params.To) == "" {
		return nil, errors.New("recipient address is required")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	s.logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendRecommendationDigest emails the products of a recommendation
func (s *Service) SendRecommendationDigest(ctx context.Context, params DigestParams) (*SendEmailResult, error) {
	subject, htmlBody, textBody, err := RenderDigest(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}
	return s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// RenderDigest returns the subject, HTML body and text body of a digest
func RenderDigest(params DigestParams) (subject, htmlBody, textBody string, err error) {
	name := params.RecipientName
	if name == "" {
		name = "there"
	}
	rec := params.Recommendation
	items := digestItems(rec)

	if rec.QueryProcessed != "" {
		subject = fmt.Sprintf("Your %d product recommendations for '%s'", len(items), rec.QueryProcessed)
	} else {
		subject = fmt.Sprintf("Your %d product recommendations", len(items))
	}

	htmlBody, err = renderDigestHTML(name, rec, items)
	if err != nil {
		return "", "", "", err
	}
	return subject, htmlBody, renderDigestText(name, rec, items), nil
}

func digestItems(rec models.Recommendation) []digestItem {
	items := make([]digestItem, 0, len(rec.Products))
	for i, p := range rec.Products {
		info := p.Product.Info()
		items = append(items, digestItem{
			Rank:     i + 1,
			Name:     info.Name,
			Provider: p.Product.Provider(),
			Category: info.Category.DisplayName(),
			Score:    p.Score,
			Reason:   p.Reasoning,
			Features: p.TopFeatures(digestFeatures),
		})
	}
	return items
}

var digestTemplate = template.Must(template.New("digest").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2d6a4f; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .product { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; }
        .product h3 { margin: 0 0 6px 0; color: #2d6a4f; }
        .meta { color: #666; font-size: 14px; }
        .score { display: inline-block; background: #40916c; color: white; padding: 3px 10px; border-radius: 14px; font-weight: bold; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Hi {{.Name}}, here are your recommendations</h2>
        <p>{{.Reasoning}}</p>
    </div>
    <div class="content">
        {{range .Items}}
        <div class="product">
            <h3>{{.Rank}}. {{.Name}}</h3>
            <p class="meta">{{.Category}}{{if .Provider}} by {{.Provider}}{{end}} <span class="score">{{printf "%.1f" .Score}}/100</span></p>
            {{if .Features}}<ul>{{range .Features}}<li>{{.}}</li>{{end}}</ul>{{end}}
            {{if .Reason}}<p class="meta">{{.Reason}}</p>{{end}}
        </div>
        {{else}}
        <p>No products matched this time. Try different search terms.</p>
        {{end}}
    </div>
    <div class="footer">
        <p>This email was sent by Financial Product Advisor</p>
    </div>
</body>
</html>`))

func renderDigestHTML(name string, rec models.Recommendation, items []digestItem) (string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, map[string]any{
		"Name":      name,
		"Reasoning": rec.Reasoning,
		"Items":     items,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDigestText(name string, rec models.Recommendation, items []digestItem) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi %s,\n\n", name)
	if rec.Reasoning != "" {
		fmt.Fprintf(&buf, "%s\n\n", rec.Reasoning)
	}

	for _, item := range items {
		fmt.Fprintf(&buf, "%d. %s (%s", item.Rank, item.Name, item.Category)
		if item.Provider != "" {
			fmt.Fprintf(&buf, ", %s", item.Provider)
		}
		fmt.Fprintf(&buf, ")\n   Score: %.1f/100\n", item.Score)
		for _, feature := range item.Features {
			fmt.Fprintf(&buf, "   - %s\n", feature)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("Best regards,\nFinancial Product Advisor\n")
	return buf.String()
}

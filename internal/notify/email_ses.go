package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// SESAPI is the subset of the SES v2 client used for lead alerts.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers lead alerts through Amazon SES.
type SESSender struct {
	client SESAPI
	from   Mailbox
	logger *logging.Logger
}

// NewSESSender returns nil without a client or a from address; SES
// rejects every message that lacks a verified sender.
func NewSESSender(client SESAPI, from Mailbox, logger *logging.Logger) *SESSender {
	if client == nil || from.Address == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: senderMailbox(from), logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	output, err := s.client.SendEmail(ctx, sesInput(s.from, msg))
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("lead alert sent via SES", "to", msg.To, "message_id", aws.ToString(output.MessageId))
	return nil
}

func sesInput(from Mailbox, msg EmailMessage) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = utf8Content(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from.String()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
		EmailTags: []types.MessageTag{{Name: aws.String("category"), Value: aws.String(alertCategory)}},
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Address != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo.String()}
	}
	return input
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)

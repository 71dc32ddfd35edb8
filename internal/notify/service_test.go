package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

type recordingDeliverer struct {
	mu       sync.Mutex
	payloads []Payload
	err      error
}

func (r *recordingDeliverer) Deliver(_ context.Context, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return r.err
}

func (r *recordingDeliverer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

type recordingEmail struct {
	sent []EmailMessage
	err  error
}

func (r *recordingEmail) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestService_NotifyLead_AllChannels(t *testing.T) {
	webhook := &recordingDeliverer{}
	email := &recordingEmail{}
	svc := NewService(Config{
		Company:         "Acme Roofing",
		Version:         "1.0.0",
		EmailRecipients: []string{"owner@acme.test", "office@acme.test"},
	}, webhook, email, metrics.NewChatMetrics(prometheus.NewRegistry()), logging.New("error"))

	lead := testLead(t)
	require.NoError(t, svc.NotifyLead(context.Background(), lead))

	require.Equal(t, 1, webhook.count())
	assert.Equal(t, Source, webhook.payloads[0].Source)
	assert.Equal(t, "Acme Roofing", webhook.payloads[0].Company)
	assert.Equal(t, lead.ID, webhook.payloads[0].Lead.ID)

	require.Len(t, email.sent, 2)
	assert.Equal(t, "owner@acme.test", email.sent[0].To)
	assert.Equal(t, "office@acme.test", email.sent[1].To)
	assert.Contains(t, email.sent[0].Subject, "Jane Doe")
	assert.Contains(t, email.sent[0].Text, "(skipped)")
	assert.Contains(t, email.sent[0].HTML, "555-222-9999")
	require.NotNil(t, email.sent[0].ReplyTo)
	assert.Equal(t, Mailbox{Name: "Jane Doe", Address: "jane@x.com"}, *email.sent[0].ReplyTo)
}

func TestService_LeadAlertWithoutEmailHasNoReplyTo(t *testing.T) {
	svc := NewService(Config{Company: "Acme Roofing"}, nil, nil, nil, logging.New("error"))
	msg := svc.leadAlert(leads.Lead{ID: "lead_1", Name: "Jo", Service: "Siding"})
	assert.Nil(t, msg.ReplyTo)
}

func TestService_NotifyLead_CollectsFailures(t *testing.T) {
	webhook := &recordingDeliverer{err: errors.New("webhook down")}
	email := &recordingEmail{err: errors.New("smtp down")}
	svc := NewService(Config{EmailRecipients: []string{"owner@acme.test"}}, webhook, email, nil, logging.New("error"))

	err := svc.NotifyLead(context.Background(), testLead(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook down")
	assert.Contains(t, err.Error(), "smtp down")
}

func TestService_NotifyLead_NothingConfigured(t *testing.T) {
	svc := NewService(Config{}, nil, nil, nil, logging.New("error"))
	assert.NoError(t, svc.NotifyLead(context.Background(), testLead(t)))
}

func TestService_EmailWithoutRecipientsSkipped(t *testing.T) {
	email := &recordingEmail{}
	svc := NewService(Config{}, nil, email, nil, logging.New("error"))
	require.NoError(t, svc.NotifyLead(context.Background(), leads.Lead{ID: "lead_1"}))
	assert.Empty(t, email.sent)
}

func TestStubEmailSender(t *testing.T) {
	s := NewStubEmailSender(logging.New("error"))
	assert.NoError(t, s.Send(context.Background(), EmailMessage{To: "a@b.c"}))
}

func TestNewSendGridSender_RequiresKeyAndFrom(t *testing.T) {
	assert.Nil(t, NewSendGridSender("", Mailbox{Address: "leads@acme.test"}, nil))
	assert.Nil(t, NewSendGridSender("SG.test", Mailbox{}, nil))
	assert.NotNil(t, NewSendGridSender("SG.test", Mailbox{Address: "leads@acme.test"}, nil))
}

func TestSendGridMessage_RepliesGoToVisitor(t *testing.T) {
	m := sendGridMessage(senderMailbox(Mailbox{Address: "leads@acme.test"}), EmailMessage{
		To:      "owner@acme.test",
		Subject: "New estimate request - Jane Doe (Roofing)",
		Text:    "plain",
		HTML:    "<p>html</p>",
		ReplyTo: &Mailbox{Name: "Jane Doe", Address: "jane@x.com"},
	})

	assert.Equal(t, "Ace Chatbot", m.From.Name)
	assert.Equal(t, "leads@acme.test", m.From.Address)
	require.NotNil(t, m.ReplyTo)
	assert.Equal(t, "jane@x.com", m.ReplyTo.Address)
	assert.Equal(t, "Jane Doe", m.ReplyTo.Name)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "owner@acme.test", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Equal(t, []string{alertCategory}, m.Categories)
}

func TestSendGridMessage_NoReplyToWithoutVisitorEmail(t *testing.T) {
	m := sendGridMessage(Mailbox{Address: "leads@acme.test"}, EmailMessage{To: "owner@acme.test", Text: "plain"})
	assert.Nil(t, m.ReplyTo)
	require.Len(t, m.Content, 1)
}

func TestMailboxString(t *testing.T) {
	assert.Equal(t, `"Jane Doe" <jane@x.com>`, Mailbox{Name: "Jane Doe", Address: "jane@x.com"}.String())
	assert.Equal(t, "<jane@x.com>", Mailbox{Address: "jane@x.com"}.String())
	assert.Equal(t, "=?utf-8?q?Jos=C3=A9?= <jose@x.com>", Mailbox{Name: "José", Address: "jose@x.com"}.String())
}

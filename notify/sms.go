package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender sends text messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	if resp.Sid != nil {
		slog.Debug("sms accepted", "sid", *resp.Sid)
	}
	return nil
}

// NoopSender logs messages instead of sending them. Used when Twilio is not configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, to, _ string) error {
	slog.Info("sms disabled, dropping message", "to", to)
	return nil
}

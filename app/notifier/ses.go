package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type SESNotifier struct {
	client *sesv2.Client
	source string
}

// NewSESNotifier builds a notifier that sends email via AWS SES.
func NewSESNotifier(cfg aws.Config, source string) *SESNotifier {
	return &SESNotifier{
		client: sesv2.NewFromConfig(cfg),
		source: source,
	}
}

// Notify renders msg as raw MIME and sends it via SES.
func (n *SESNotifier) Notify(ctx context.Context, msg Message) error {
	raw, err := BuildRaw(n.source, msg)
	if err != nil {
		return fmt.Errorf("build raw email: %w", err)
	}

	_, err = n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.source),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Recipient},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send raw email: %w", err)
	}
	return nil
}

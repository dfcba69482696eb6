// Package aws wraps the SES and SNS clients used for applicant and staff notifications.
package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var ErrNoRecipient = errors.New("aws: no recipient")

// SESAPI is the subset of the SES client the sender needs.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

// Email is a single message with a plain and an HTML body.
type Email struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type SESClient struct {
	api  SESAPI
	from string
}

func NewSESClient(api SESAPI, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// NewSESClientFromConfig builds the SES client from an SDK config.
func NewSESClientFromConfig(cfg aws.Config, from string) *SESClient {
	return NewSESClient(ses.NewFromConfig(cfg), from)
}

// SendEmail returns the SES message id.
func (s *SESClient) SendEmail(ctx context.Context, email Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipient
	}

	body := &types.Body{Text: &types.Content{Data: aws.String(email.Text), Charset: aws.String("UTF-8")}}
	if email.HTML != "" {
		body.Html = &types.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: email.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

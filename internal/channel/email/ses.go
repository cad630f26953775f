// Package email holds the email channel backends.
package email

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

// SESAPI is the slice of the SES client used by the backend, mockable in tests.
type SESAPI interface {
	SendEmail(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error)
}

// SES sends email through AWS SES. The rendered title becomes the subject;
// rich content goes out as the HTML part with the plain body as fallback.
type SES struct {
	cfg    config.SESConfig
	api    SESAPI
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewSES(cfg config.EmailChannelConfig, api SESAPI, log logger.Logger) *SES {
	return &SES{
		cfg:    cfg.SES,
		api:    api,
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (s *SES) Channel() channel.Channel { return channel.Email }
func (s *SES) Name() string             { return "ses" }

func (s *SES) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := s.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}

	body := &types.Body{
		Text: &types.Content{
			Data:    aws.String(content.Body),
			Charset: aws.String("UTF-8"),
		},
	}
	if content.RichBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(content.RichBody),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &awsses.SendEmailInput{
		Source: aws.String(s.cfg.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{address},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(content.Title),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	}

	out, err := s.api.SendEmail(ctx, input)
	if err != nil {
		s.logger.Warn("SES send failed", map[string]interface{}{"to": address})
		return channel.Failed(address, err.Error())
	}
	return channel.Ok(address, aws.ToString(out.MessageId))
}

func (s *SES) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, s, batch)
}

package sms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

// SNSAPI is the slice of the SNS client used by the backend, mockable in tests.
type SNSAPI interface {
	Publish(ctx context.Context, input *awssns.PublishInput) (*awssns.PublishOutput, error)
}

// SNS sends SMS through AWS SNS direct phone-number publish.
type SNS struct {
	cfg    config.SNSConfig
	api    SNSAPI
	pacer  *channel.Pacer
	logger logger.Logger
}

func NewSNS(cfg config.SMSChannelConfig, api SNSAPI, log logger.Logger) *SNS {
	return &SNS{
		cfg:    cfg.SNS,
		api:    api,
		pacer:  channel.NewPacer(cfg.RatePerSecond),
		logger: log,
	}
}

func (s *SNS) Channel() channel.Channel { return channel.SMS }
func (s *SNS) Name() string             { return "sns" }

func (s *SNS) SendOne(ctx context.Context, address string, content channel.Content) channel.SendResult {
	if err := s.pacer.Wait(ctx); err != nil {
		return channel.Failed(address, err.Error())
	}

	input := &awssns.PublishInput{
		PhoneNumber: aws.String(address),
		Message:     aws.String(content.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Promotional"),
			},
		},
	}
	if s.cfg.SenderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.cfg.SenderID),
		}
	}

	out, err := s.api.Publish(ctx, input)
	if err != nil {
		s.logger.Warn("SNS publish failed", map[string]interface{}{"to": address})
		return channel.Failed(address, err.Error())
	}
	return channel.Ok(address, aws.ToString(out.MessageId))
}

func (s *SNS) SendMany(ctx context.Context, batch []channel.Recipient) channel.BatchReport {
	return channel.SendManySequential(ctx, s, batch)
}

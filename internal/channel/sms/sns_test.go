package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

type mockSNSAPI struct {
	PublishFunc func(ctx context.Context, input *awssns.PublishInput) (*awssns.PublishOutput, error)
}

func (m *mockSNSAPI) Publish(ctx context.Context, input *awssns.PublishInput) (*awssns.PublishOutput, error) {
	return m.PublishFunc(ctx, input)
}

func snsTestConfig() config.SMSChannelConfig {
	return config.SMSChannelConfig{
		Provider: "sns",
		SNS:      config.SNSConfig{Region: "ap-south-1", SenderID: "CAMPGN"},
	}
}

func TestSNS_SendOne_Success(t *testing.T) {
	var captured *awssns.PublishInput
	mock := &mockSNSAPI{
		PublishFunc: func(ctx context.Context, input *awssns.PublishInput) (*awssns.PublishOutput, error) {
			captured = input
			return &awssns.PublishOutput{MessageId: aws.String("mid-1")}, nil
		},
	}

	b := NewSNS(snsTestConfig(), mock, logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "+919876543210", channel.Content{Body: "Hi Rahul"})

	assert.True(t, res.Success)
	assert.Equal(t, "mid-1", res.ProviderID)

	require.NotNil(t, captured)
	assert.Equal(t, "+919876543210", aws.ToString(captured.PhoneNumber))
	assert.Equal(t, "Hi Rahul", aws.ToString(captured.Message))
	assert.Equal(t, "CAMPGN", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSNS_SendOne_PublishError(t *testing.T) {
	mock := &mockSNSAPI{
		PublishFunc: func(ctx context.Context, input *awssns.PublishInput) (*awssns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	b := NewSNS(snsTestConfig(), mock, logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "+919876543210", channel.Content{Body: "Hi"})

	assert.False(t, res.Success)
	assert.Equal(t, "throttled", res.Error)
}

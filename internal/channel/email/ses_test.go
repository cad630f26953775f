package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/channel"
	"campaign-engine/internal/common/config"
	"campaign-engine/internal/common/logger"
)

type mockSESAPI struct {
	SendEmailFunc func(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error)
}

func (m *mockSESAPI) SendEmail(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, input)
}

func sesTestConfig() config.EmailChannelConfig {
	return config.EmailChannelConfig{
		Provider: "ses",
		SES:      config.SESConfig{Region: "ap-south-1", FromEmail: "campaign@example.org"},
	}
}

func TestSES_SendOne_Success(t *testing.T) {
	var captured *awsses.SendEmailInput
	mock := &mockSESAPI{
		SendEmailFunc: func(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error) {
			captured = input
			return &awsses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
		},
	}

	b := NewSES(sesTestConfig(), mock, logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "rahul@example.org", channel.Content{
		Title:    "Campaign Update",
		Body:     "Hi Rahul",
		RichBody: `<div class="campaign-message"><p>Hi Rahul</p></div>`,
	})

	assert.True(t, res.Success)
	assert.Equal(t, "ses-1", res.ProviderID)

	require.NotNil(t, captured)
	assert.Equal(t, "campaign@example.org", aws.ToString(captured.Source))
	assert.Equal(t, []string{"rahul@example.org"}, captured.Destination.ToAddresses)
	assert.Equal(t, "Campaign Update", aws.ToString(captured.Message.Subject.Data))
	assert.Equal(t, "Hi Rahul", aws.ToString(captured.Message.Body.Text.Data))
	require.NotNil(t, captured.Message.Body.Html)
	assert.Contains(t, aws.ToString(captured.Message.Body.Html.Data), "campaign-message")
}

func TestSES_SendOne_NoRichBodySkipsHTMLPart(t *testing.T) {
	var captured *awsses.SendEmailInput
	mock := &mockSESAPI{
		SendEmailFunc: func(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error) {
			captured = input
			return &awsses.SendEmailOutput{MessageId: aws.String("ses-2")}, nil
		},
	}

	b := NewSES(sesTestConfig(), mock, logger.NewNoOpLogger())
	b.SendOne(context.Background(), "rahul@example.org", channel.Content{Title: "T", Body: "plain"})

	require.NotNil(t, captured)
	assert.Nil(t, captured.Message.Body.Html)
}

func TestSES_SendOne_SendError(t *testing.T) {
	mock := &mockSESAPI{
		SendEmailFunc: func(ctx context.Context, input *awsses.SendEmailInput) (*awsses.SendEmailOutput, error) {
			return nil, errors.New("rate exceeded")
		},
	}

	b := NewSES(sesTestConfig(), mock, logger.NewNoOpLogger())
	res := b.SendOne(context.Background(), "rahul@example.org", channel.Content{Title: "T", Body: "b"})

	assert.False(t, res.Success)
	assert.Equal(t, "rate exceeded", res.Error)
}

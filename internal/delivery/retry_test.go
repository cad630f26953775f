package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-engine/internal/common/errors"
	"campaign-engine/internal/models"
)

func TestRetryFailedDeliveries_RecoversEligibleContacts(t *testing.T) {
	f := newFixture(t)
	f.store.AddMessage(&models.Message{ID: "m1", CampaignID: "camp1", DefaultContent: "Hi {{firstName}}", FailedCount: 2, SentCount: 1, TotalRecipients: 3})
	f.store.AddVoter(&models.Voter{ID: "v1", FirstName: "Rahul", Phone: "+911111111111"})
	f.store.AddVoter(&models.Voter{ID: "v2", FirstName: "Priya", Phone: "+912222222222"})
	f.store.AddContact(&models.Contact{ID: "c1", VoterID: "v1", CampaignID: "camp1", MessageID: "m1", Channel: "sms", Status: models.StatusFailed, RetryCount: 1, ErrorCode: "PROVIDER_ERROR"})
	f.store.AddContact(&models.Contact{ID: "c2", VoterID: "v2", CampaignID: "camp1", MessageID: "m1", Channel: "sms", Status: models.StatusFailed, RetryCount: 3})

	result, err := f.engine.RetryFailedDeliveries(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)

	c1, _ := f.store.GetContact(context.Background(), "c1")
	assert.Equal(t, models.StatusDelivered, c1.Status)

	// At-ceiling contact is untouched, not reported.
	c2, _ := f.store.GetContact(context.Background(), "c2")
	assert.Equal(t, models.StatusFailed, c2.Status)
	assert.Equal(t, 3, c2.RetryCount)
	assert.Equal(t, 1, f.sms.sentCount())

	msg, _ := f.store.GetMessage(context.Background(), "m1")
	assert.Equal(t, 2, msg.SentCount)
	assert.Equal(t, 1, msg.FailedCount)
}

func TestRetryFailedDeliveries_CeilingIsPermanent(t *testing.T) {
	f := newFixture(t)
	f.store.AddMessage(&models.Message{ID: "m1", CampaignID: "camp1", DefaultContent: "Hi"})
	f.store.AddVoter(&models.Voter{ID: "v1", FirstName: "Rahul", Phone: "+911111111111"})
	f.store.AddContact(&models.Contact{ID: "c1", VoterID: "v1", CampaignID: "camp1", MessageID: "m1", Channel: "sms", Status: models.StatusFailed, RetryCount: 1})
	f.sms.failOn["+911111111111"] = true

	// Each pass bumps retryCount until the ceiling locks the contact out.
	for i := 0; i < 5; i++ {
		_, err := f.engine.RetryFailedDeliveries(context.Background(), "m1")
		require.NoError(t, err)
	}

	c1, _ := f.store.GetContact(context.Background(), "c1")
	assert.Equal(t, models.StatusFailed, c1.Status)
	assert.Equal(t, 3, c1.RetryCount, "retryCount never exceeds the ceiling")

	// Passes after the ceiling stop attempting the contact.
	attempts := f.sms.sentCount()
	_, err := f.engine.RetryFailedDeliveries(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, attempts, f.sms.sentCount())
}

func TestRetryFailedDeliveries_SkipsOptedOut(t *testing.T) {
	f := newFixture(t)
	f.store.AddMessage(&models.Message{ID: "m1", CampaignID: "camp1", DefaultContent: "Hi"})
	f.store.AddVoter(&models.Voter{ID: "v1", FirstName: "Rahul", Phone: "+911111111111"})
	f.store.AddContact(&models.Contact{ID: "c1", VoterID: "v1", CampaignID: "camp1", MessageID: "m1", Channel: "sms", Status: models.StatusOptedOut, RetryCount: 1})

	result, err := f.engine.RetryFailedDeliveries(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Success+result.Failed)
	assert.Equal(t, 0, f.sms.sentCount())
}

func TestRetryFailedDeliveries_MessageNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RetryFailedDeliveries(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMessageNotFound, errors.CodeOf(err))
}

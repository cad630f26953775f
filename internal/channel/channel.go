// Package channel defines the delivery backend contract. A backend reports
// per-recipient success or failure through results, never through errors;
// pacing and batching live behind the interface.
package channel

import "context"

// Channel identifies a delivery medium.
type Channel string

const (
	SMS      Channel = "sms"
	WhatsApp Channel = "whatsapp"
	Email    Channel = "email"
)

// Parse maps a stored channel string onto a known Channel.
func Parse(s string) (Channel, bool) {
	switch Channel(s) {
	case SMS, WhatsApp, Email:
		return Channel(s), true
	}
	return "", false
}

// Content is the rendered, channel-ready payload for one recipient.
type Content struct {
	Title    string
	Body     string
	RichBody string
}

// Recipient pairs one contact with its resolved address and rendered content.
type Recipient struct {
	ContactID string
	Address   string
	Content   Content
}

// SendResult is the per-recipient outcome of a send attempt.
type SendResult struct {
	ContactID  string
	Address    string
	Success    bool
	ProviderID string
	Error      string
}

// BatchReport aggregates a SendMany call. Results is index-aligned with the
// input batch; SuccessCount+FailedCount always equals len(Results).
type BatchReport struct {
	SuccessCount int
	FailedCount  int
	Results      []SendResult
}

// Backend sends rendered content over one channel. Implementations own their
// pacing and batching and must not return errors for per-recipient failures;
// a failed recipient is a Result with Success=false.
type Backend interface {
	Channel() Channel
	Name() string
	SendOne(ctx context.Context, address string, content Content) SendResult
	SendMany(ctx context.Context, batch []Recipient) BatchReport
}

// SendManySequential implements SendMany for backends without a native bulk
// API by pacing through SendOne per recipient.
func SendManySequential(ctx context.Context, b Backend, batch []Recipient) BatchReport {
	report := BatchReport{Results: make([]SendResult, 0, len(batch))}
	for _, r := range batch {
		res := b.SendOne(ctx, r.Address, r.Content)
		res.ContactID = r.ContactID
		report.Results = append(report.Results, res)
		if res.Success {
			report.SuccessCount++
		} else {
			report.FailedCount++
		}
	}
	return report
}

// Ok builds a successful SendResult.
func Ok(address, providerID string) SendResult {
	return SendResult{Address: address, Success: true, ProviderID: providerID}
}

// Failed builds a failed SendResult with the provider's reason.
func Failed(address, reason string) SendResult {
	return SendResult{Address: address, Success: false, Error: reason}
}

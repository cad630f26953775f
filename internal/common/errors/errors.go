// Package errors provides standardized error handling for the delivery engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeMessageNotFound         ErrorCode = "MESSAGE_NOT_FOUND"
	ErrCodeCampaignNotFound        ErrorCode = "CAMPAIGN_NOT_FOUND"
	ErrCodeVoterNotFound           ErrorCode = "VOTER_NOT_FOUND"
	ErrCodeContactNotFound         ErrorCode = "CONTACT_NOT_FOUND"
	ErrCodeRecipientAddressMissing ErrorCode = "RECIPIENT_ADDRESS_MISSING"
	ErrCodeProviderError           ErrorCode = "PROVIDER_ERROR"
	ErrCodePersistenceError        ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInvalidTransition       ErrorCode = "INVALID_TRANSITION"
)

// DeliveryError represents a structured application error.
type DeliveryError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("DeliveryError[%s]: %s", e.Code, e.Message)
}

// Is makes errors.Is match on the error code, so callers can compare against
// a constructed sentinel without caring about details or timestamps.
func (e *DeliveryError) Is(target error) bool {
	var de *DeliveryError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// CodeOf extracts the error code from err, or empty when err is not a DeliveryError.
func CodeOf(err error) ErrorCode {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrCodeMessageNotFound, ErrCodeCampaignNotFound, ErrCodeVoterNotFound, ErrCodeContactNotFound:
		return true
	}
	return false
}

// NewValidationError creates a non-retryable template validation error.
// It blocks message authoring, never rendering.
func NewValidationError(details string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeValidationFailed,
		Message:   "Template validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageNotFoundError creates a non-retryable lookup error.
func NewMessageNotFoundError(messageID string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeMessageNotFound,
		Message:   "Message not found",
		Details:   fmt.Sprintf("messageId: %s", messageID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCampaignNotFoundError creates a non-retryable lookup error.
func NewCampaignNotFoundError(campaignID string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeCampaignNotFound,
		Message:   "Campaign not found",
		Details:   fmt.Sprintf("campaignId: %s", campaignID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVoterNotFoundError creates a non-retryable lookup error.
func NewVoterNotFoundError(voterID string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeVoterNotFound,
		Message:   "Voter not found",
		Details:   fmt.Sprintf("voterId: %s", voterID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContactNotFoundError creates a non-retryable lookup error.
func NewContactNotFoundError(contactID string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeContactNotFound,
		Message:   "Contact not found",
		Details:   fmt.Sprintf("contactId: %s", contactID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientAddressMissingError marks a single contact whose recipient has
// no usable address on the contact's channel. Never aborts the batch.
func NewRecipientAddressMissingError(channel, voterID string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeRecipientAddressMissing,
		Message:   "Recipient has no address for channel",
		Details:   fmt.Sprintf("channel: %s, voterId: %s", channel, voterID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError creates a retryable backend send error.
func NewProviderError(provider string, err error) *DeliveryError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DeliveryError{
		Code:      ErrCodeProviderError,
		Message:   fmt.Sprintf("Provider '%s' send failed", provider),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable contact-state write error.
// The engine logs and counts these; it does not auto-retry the write.
func NewPersistenceError(op string, err error) *DeliveryError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DeliveryError{
		Code:      ErrCodePersistenceError,
		Message:   fmt.Sprintf("Persistence operation '%s' failed", op),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError rejects a contact state change the transition
// table does not allow.
func NewInvalidTransitionError(from, to string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Invalid contact status transition",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

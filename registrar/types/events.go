package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// NotificationType enumerates every state transition recorded in the event
// log.
type NotificationType string

// Event log entry types.
const (
	NotifyIdentityInserted              NotificationType = "identity_inserted"
	NotifyIdentityUpdated               NotificationType = "identity_updated"
	NotifyFieldVerified                 NotificationType = "field_verified"
	NotifyFieldVerificationFailed       NotificationType = "field_verification_failed"
	NotifySecondFieldVerified           NotificationType = "second_field_verified"
	NotifySecondFieldVerificationFailed NotificationType = "second_field_verification_failed"
	NotifyAwaitingSecondChallenge       NotificationType = "awaiting_second_challenge"
	NotifyIdentityFullyVerified         NotificationType = "identity_fully_verified"
	NotifyJudgementProvided             NotificationType = "judgement_provided"
	NotifyManuallyVerified              NotificationType = "manually_verified"
	NotifyFullManualVerification        NotificationType = "full_manual_verification"
)

// NotificationMessage is one entry of the append-only event log. Every
// message carries the identity context it concerns; field-scoped messages
// additionally carry the field, and manual verifications the admin field
// name.
type NotificationMessage struct {
	Type     NotificationType
	Context  IdentityContext
	Field    *IdentityFieldValue
	RawField RawFieldName
}

// IdentityInsertedNotification records a newly registered judgement request.
func IdentityInsertedNotification(ctx IdentityContext) NotificationMessage {
	return NotificationMessage{Type: NotifyIdentityInserted, Context: ctx}
}

// IdentityUpdatedNotification records a field set change of a pending
// request.
func IdentityUpdatedNotification(ctx IdentityContext) NotificationMessage {
	return NotificationMessage{Type: NotifyIdentityUpdated, Context: ctx}
}

// FieldVerifiedNotification records a passed primary challenge.
func FieldVerifiedNotification(ctx IdentityContext, field IdentityFieldValue) NotificationMessage {
	return NotificationMessage{Type: NotifyFieldVerified, Context: ctx, Field: &field}
}

// FieldVerificationFailedNotification records a failed primary challenge
// attempt.
func FieldVerificationFailedNotification(ctx IdentityContext, field IdentityFieldValue) NotificationMessage {
	return NotificationMessage{Type: NotifyFieldVerificationFailed, Context: ctx, Field: &field}
}

// SecondFieldVerifiedNotification records a passed secondary challenge.
func SecondFieldVerifiedNotification(ctx IdentityContext, field IdentityFieldValue) NotificationMessage {
	return NotificationMessage{Type: NotifySecondFieldVerified, Context: ctx, Field: &field}
}

// SecondFieldVerificationFailedNotification records a failed secondary
// challenge attempt.
func SecondFieldVerificationFailedNotification(ctx IdentityContext, field IdentityFieldValue) NotificationMessage {
	return NotificationMessage{Type: NotifySecondFieldVerificationFailed, Context: ctx, Field: &field}
}

// AwaitingSecondChallengeNotification records that a field passed its
// primary challenge and now waits for the secondary one.
func AwaitingSecondChallengeNotification(ctx IdentityContext, field IdentityFieldValue) NotificationMessage {
	return NotificationMessage{Type: NotifyAwaitingSecondChallenge, Context: ctx, Field: &field}
}

// IdentityFullyVerifiedNotification records the completion transition.
func IdentityFullyVerifiedNotification(ctx IdentityContext) NotificationMessage {
	return NotificationMessage{Type: NotifyIdentityFullyVerified, Context: ctx}
}

// JudgementProvidedNotification records that the chain submitter issued a
// judgement for the identity.
func JudgementProvidedNotification(ctx IdentityContext) NotificationMessage {
	return NotificationMessage{Type: NotifyJudgementProvided, Context: ctx}
}

// ManuallyVerifiedNotification records an admin override of a single field.
func ManuallyVerifiedNotification(ctx IdentityContext, field RawFieldName) NotificationMessage {
	return NotificationMessage{Type: NotifyManuallyVerified, Context: ctx, RawField: field}
}

// FullManualVerificationNotification records an admin override of the whole
// identity.
func FullManualVerificationNotification(ctx IdentityContext) NotificationMessage {
	return NotificationMessage{Type: NotifyFullManualVerification, Context: ctx}
}

type notificationEnvelope struct {
	Type  NotificationType `json:"type"`
	Value json.RawMessage  `json:"value"`
}

type contextPayload struct {
	Context IdentityContext `json:"context"`
}

type fieldPayload struct {
	Context IdentityContext    `json:"context"`
	Field   IdentityFieldValue `json:"field"`
}

type rawFieldPayload struct {
	Context IdentityContext `json:"context"`
	Field   RawFieldName    `json:"field"`
}

// MarshalJSON encodes the message as {"type": ..., "value": {...}}.
func (n NotificationMessage) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch n.Type {
	case NotifyIdentityInserted, NotifyIdentityUpdated, NotifyIdentityFullyVerified,
		NotifyJudgementProvided, NotifyFullManualVerification:
		payload = contextPayload{Context: n.Context}
	case NotifyFieldVerified, NotifyFieldVerificationFailed, NotifySecondFieldVerified,
		NotifySecondFieldVerificationFailed, NotifyAwaitingSecondChallenge:
		if n.Field == nil {
			return nil, errors.Errorf("notification %q requires a field", n.Type)
		}
		payload = fieldPayload{Context: n.Context, Field: *n.Field}
	case NotifyManuallyVerified:
		payload = rawFieldPayload{Context: n.Context, Field: n.RawField}
	default:
		return nil, errors.Errorf("unknown notification type %q", n.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notificationEnvelope{Type: n.Type, Value: raw})
}

// UnmarshalJSON decodes the tagged union form of a notification message.
func (n *NotificationMessage) UnmarshalJSON(data []byte) error {
	var env notificationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*n = NotificationMessage{Type: env.Type}
	switch env.Type {
	case NotifyIdentityInserted, NotifyIdentityUpdated, NotifyIdentityFullyVerified,
		NotifyJudgementProvided, NotifyFullManualVerification:
		var payload contextPayload
		if err := json.Unmarshal(env.Value, &payload); err != nil {
			return err
		}
		n.Context = payload.Context
	case NotifyFieldVerified, NotifyFieldVerificationFailed, NotifySecondFieldVerified,
		NotifySecondFieldVerificationFailed, NotifyAwaitingSecondChallenge:
		var payload fieldPayload
		if err := json.Unmarshal(env.Value, &payload); err != nil {
			return err
		}
		n.Context = payload.Context
		n.Field = &payload.Field
	case NotifyManuallyVerified:
		var payload rawFieldPayload
		if err := json.Unmarshal(env.Value, &payload); err != nil {
			return err
		}
		n.Context = payload.Context
		n.RawField = payload.Field
	default:
		return errors.Errorf("unknown notification type %q", env.Type)
	}
	return nil
}

// Event is a timestamped entry of the append-only event log.
type Event struct {
	Timestamp Timestamp           `json:"timestamp"`
	Event     NotificationMessage `json:"event"`
}

package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// JudgementState is the full verification state of one pending judgement
// request. It is unique on Context.
type JudgementState struct {
	Context             IdentityContext `json:"context"`
	IsFullyVerified     bool            `json:"is_fully_verified"`
	InsertedTimestamp   Timestamp       `json:"inserted_timestamp"`
	CompletionTimestamp *Timestamp      `json:"completion_timestamp"`
	JudgementSubmitted  bool            `json:"judgement_submitted"`
	IssueJudgementAt    *Timestamp      `json:"issue_judgement_at"`
	Fields              []IdentityField `json:"fields"`
}

// NewJudgementState constructs a fresh state for a judgement request.
func NewJudgementState(ctx IdentityContext, fields []IdentityField) *JudgementState {
	return &JudgementState{
		Context:           ctx,
		InsertedTimestamp: Now(),
		Fields:            fields,
	}
}

// CheckFullVerification reports whether every field's challenge has been
// passed.
func (s *JudgementState) CheckFullVerification() bool {
	for _, field := range s.Fields {
		if !field.Challenge.IsVerified() {
			return false
		}
	}
	return true
}

// FieldByValue returns a pointer into Fields for the field with an equal
// declared value, or nil.
func (s *JudgementState) FieldByValue(value IdentityFieldValue) *IdentityField {
	for i := range s.Fields {
		if s.Fields[i].Value == value {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldByKind returns a pointer into Fields for the first field of the given
// kind, or nil.
func (s *JudgementState) FieldByKind(kind FieldKind) *IdentityField {
	for i := range s.Fields {
		if s.Fields[i].Value.Kind == kind {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldByOrigin returns a pointer into Fields for the field whose value is
// the endpoint the external message was received from, or nil.
func (s *JudgementState) FieldByOrigin(origin ExternalMessageOrigin) *IdentityField {
	for i := range s.Fields {
		if s.Fields[i].Value.MatchesOrigin(origin) {
			return &s.Fields[i]
		}
	}
	return nil
}

// ExpectedMessageBlanked is the public projection of a secondary nonce: the
// verification flag without the nonce itself.
type ExpectedMessageBlanked struct {
	IsVerified bool `json:"is_verified"`
}

// ExpectedMessageChallengeBlanked redacts the secondary nonce of an expected
// message challenge. The primary nonce stays visible since the account
// holder must echo it.
type ExpectedMessageChallengeBlanked struct {
	Expected ExpectedMessage         `json:"expected"`
	Second   *ExpectedMessageBlanked `json:"second"`
}

// ChallengeTypeBlanked mirrors ChallengeType with unsolved secondary nonces
// redacted.
type ChallengeTypeBlanked struct {
	ExpectedMessage  *ExpectedMessageChallengeBlanked
	DisplayNameCheck *DisplayNameCheckChallenge
	Unsupported      *UnsupportedChallenge
}

// MarshalJSON encodes the blanked challenge as {"type": ..., "content": ...}.
func (c ChallengeTypeBlanked) MarshalJSON() ([]byte, error) {
	var tag string
	var content interface{}
	switch {
	case c.ExpectedMessage != nil:
		tag, content = challengeExpectedMessage, c.ExpectedMessage
	case c.DisplayNameCheck != nil:
		tag, content = challengeDisplayNameCheck, c.DisplayNameCheck
	case c.Unsupported != nil:
		tag, content = challengeUnsupported, c.Unsupported
	default:
		return nil, errors.New("cannot encode empty challenge")
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(challengeEnvelope{Type: tag, Content: raw})
}

// UnmarshalJSON decodes the tagged union form of a blanked challenge.
func (c *ChallengeTypeBlanked) UnmarshalJSON(data []byte) error {
	var env challengeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*c = ChallengeTypeBlanked{}
	switch env.Type {
	case challengeExpectedMessage:
		c.ExpectedMessage = &ExpectedMessageChallengeBlanked{}
		return json.Unmarshal(env.Content, c.ExpectedMessage)
	case challengeDisplayNameCheck:
		c.DisplayNameCheck = &DisplayNameCheckChallenge{}
		return json.Unmarshal(env.Content, c.DisplayNameCheck)
	case challengeUnsupported:
		c.Unsupported = &UnsupportedChallenge{}
		return json.Unmarshal(env.Content, c.Unsupported)
	default:
		return errors.Errorf("unknown challenge type %q", env.Type)
	}
}

// IdentityFieldBlanked is the public projection of an identity field.
type IdentityFieldBlanked struct {
	Value          IdentityFieldValue   `json:"value"`
	Challenge      ChallengeTypeBlanked `json:"challenge"`
	FailedAttempts uint64               `json:"failed_attempts"`
}

// JudgementStateBlanked is the public projection of a judgement state. It
// omits the judgement issuance time and redacts unsolved secondary nonces,
// so that clients cannot read them off the state endpoint.
type JudgementStateBlanked struct {
	Context             IdentityContext        `json:"context"`
	IsFullyVerified     bool                   `json:"is_fully_verified"`
	InsertedTimestamp   Timestamp              `json:"inserted_timestamp"`
	CompletionTimestamp *Timestamp             `json:"completion_timestamp"`
	JudgementSubmitted  bool                   `json:"judgement_submitted"`
	Fields              []IdentityFieldBlanked `json:"fields"`
}

// Blanked projects the state into its public form. The projection never
// mutates the receiver.
func (s *JudgementState) Blanked() *JudgementStateBlanked {
	blanked := &JudgementStateBlanked{
		Context:            s.Context,
		IsFullyVerified:    s.IsFullyVerified,
		InsertedTimestamp:  s.InsertedTimestamp,
		JudgementSubmitted: s.JudgementSubmitted,
		Fields:             make([]IdentityFieldBlanked, 0, len(s.Fields)),
	}
	if s.CompletionTimestamp != nil {
		completion := *s.CompletionTimestamp
		blanked.CompletionTimestamp = &completion
	}
	for _, field := range s.Fields {
		bf := IdentityFieldBlanked{
			Value:          field.Value,
			FailedAttempts: field.FailedAttempts,
		}
		switch {
		case field.Challenge.ExpectedMessage != nil:
			em := &ExpectedMessageChallengeBlanked{Expected: field.Challenge.ExpectedMessage.Expected}
			if second := field.Challenge.ExpectedMessage.Second; second != nil {
				em.Second = &ExpectedMessageBlanked{IsVerified: second.IsVerified}
			}
			bf.Challenge = ChallengeTypeBlanked{ExpectedMessage: em}
		case field.Challenge.DisplayNameCheck != nil:
			check := *field.Challenge.DisplayNameCheck
			check.Violations = append([]DisplayNameEntry{}, check.Violations...)
			bf.Challenge = ChallengeTypeBlanked{DisplayNameCheck: &check}
		case field.Challenge.Unsupported != nil:
			unsupported := *field.Challenge.Unsupported
			if unsupported.IsVerified != nil {
				verified := *unsupported.IsVerified
				unsupported.IsVerified = &verified
			}
			bf.Challenge = ChallengeTypeBlanked{Unsupported: &unsupported}
		}
		blanked.Fields = append(blanked.Fields, bf)
	}
	return blanked
}

// DisplayNameEntry is one record of the display name corpus queried by the
// external similarity policy.
type DisplayNameEntry struct {
	Context     IdentityContext `json:"context"`
	DisplayName string          `json:"display_name"`
}

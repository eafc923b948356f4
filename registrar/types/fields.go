package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// FieldKind enumerates the identity attributes an account may declare.
type FieldKind string

// Identity field kinds.
const (
	KindLegalName      FieldKind = "legal_name"
	KindDisplayName    FieldKind = "display_name"
	KindEmail          FieldKind = "email"
	KindWeb            FieldKind = "web"
	KindTwitter        FieldKind = "twitter"
	KindMatrix         FieldKind = "matrix"
	KindPGPFingerprint FieldKind = "pgp_fingerprint"
	KindImage          FieldKind = "image"
	KindAdditional     FieldKind = "additional"
)

// IdentityFieldValue is the user-declared value of a single identity
// attribute. Kinds without a string payload (pgp_fingerprint, image,
// additional) carry an empty Value.
type IdentityFieldValue struct {
	Kind  FieldKind
	Value string
}

// LegalName declares a legal name field value.
func LegalName(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindLegalName, Value: v}
}

// DisplayName declares a display name field value.
func DisplayName(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindDisplayName, Value: v}
}

// Email declares an email field value.
func Email(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindEmail, Value: v}
}

// Web declares a web field value.
func Web(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindWeb, Value: v}
}

// Twitter declares a twitter field value.
func Twitter(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindTwitter, Value: v}
}

// Matrix declares a matrix field value.
func Matrix(v string) IdentityFieldValue {
	return IdentityFieldValue{Kind: KindMatrix, Value: v}
}

// PGPFingerprint declares a PGP fingerprint field value.
func PGPFingerprint() IdentityFieldValue {
	return IdentityFieldValue{Kind: KindPGPFingerprint}
}

// Image declares an image field value.
func Image() IdentityFieldValue {
	return IdentityFieldValue{Kind: KindImage}
}

// Additional declares an additional field value.
func Additional() IdentityFieldValue {
	return IdentityFieldValue{Kind: KindAdditional}
}

// MatchesOrigin reports whether this field value is the endpoint an external
// message was received from. Only email, twitter and matrix fields have a
// message channel.
func (v IdentityFieldValue) MatchesOrigin(origin ExternalMessageOrigin) bool {
	switch v.Kind {
	case KindEmail:
		return origin.Type == OriginEmail && origin.Value == v.Value
	case KindTwitter:
		return origin.Type == OriginTwitter && origin.Value == v.Value
	case KindMatrix:
		return origin.Type == OriginMatrix && origin.Value == v.Value
	default:
		return false
	}
}

type fieldValueEnvelope struct {
	Type  FieldKind `json:"type"`
	Value *string   `json:"value"`
}

var fieldKindsWithoutPayload = map[FieldKind]bool{
	KindPGPFingerprint: true,
	KindImage:          true,
	KindAdditional:     true,
}

// MarshalJSON encodes the field value as a tagged union of the form
// {"type": ..., "value": ...}, with a null value for kinds without payload.
func (v IdentityFieldValue) MarshalJSON() ([]byte, error) {
	env := fieldValueEnvelope{Type: v.Kind}
	if !fieldKindsWithoutPayload[v.Kind] {
		value := v.Value
		env.Value = &value
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the tagged union form of a field value.
func (v *IdentityFieldValue) UnmarshalJSON(data []byte) error {
	var env fieldValueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindLegalName, KindDisplayName, KindEmail, KindWeb, KindTwitter, KindMatrix,
		KindPGPFingerprint, KindImage, KindAdditional:
	default:
		return errors.Errorf("unknown identity field type %q", env.Type)
	}
	v.Kind = env.Type
	v.Value = ""
	if env.Value != nil {
		v.Value = *env.Value
	}
	return nil
}

// IdentityField pairs a declared field value with the challenge that proves
// control of it.
type IdentityField struct {
	Value          IdentityFieldValue `json:"value"`
	Challenge      ChallengeType      `json:"challenge"`
	FailedAttempts uint64             `json:"failed_attempts"`
}

// NewIdentityField constructs a field with the challenge variant determined
// by the field kind. Email is a two stage challenge (inbound plus outbound
// probe), twitter and matrix are single stage, the display name is checked
// by the external similarity policy, and everything else can only be
// verified manually.
func NewIdentityField(value IdentityFieldValue) IdentityField {
	var challenge ChallengeType
	switch value.Kind {
	case KindEmail:
		second := NewExpectedMessage()
		challenge = ChallengeType{ExpectedMessage: &ExpectedMessageChallenge{
			Expected: NewExpectedMessage(),
			Second:   &second,
		}}
	case KindTwitter, KindMatrix:
		challenge = ChallengeType{ExpectedMessage: &ExpectedMessageChallenge{
			Expected: NewExpectedMessage(),
		}}
	case KindDisplayName:
		challenge = ChallengeType{DisplayNameCheck: &DisplayNameCheckChallenge{
			Violations: []DisplayNameEntry{},
		}}
	default:
		challenge = ChallengeType{Unsupported: &UnsupportedChallenge{}}
	}
	return IdentityField{Value: value, Challenge: challenge}
}

// NewIdentityFields constructs a field per declared value.
func NewIdentityFields(values ...IdentityFieldValue) []IdentityField {
	fields := make([]IdentityField, 0, len(values))
	for _, v := range values {
		fields = append(fields, NewIdentityField(v))
	}
	return fields
}

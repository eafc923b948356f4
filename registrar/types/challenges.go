package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/config/params"
	"github.com/registrarlabs/registrar/crypto/rand"
)

// ExpectedMessage is a random nonce the account holder must echo back
// through the field's message channel.
type ExpectedMessage struct {
	Value      string `json:"value"`
	IsVerified bool   `json:"is_verified"`
}

// NewExpectedMessage generates a fresh challenge nonce, hex encoded and drawn
// from a generator seeded with system entropy. At the configured 16 byte
// length collisions between concurrently generated challenges are not a
// practical concern.
func NewExpectedMessage() ExpectedMessage {
	buf := make([]byte, params.RegistrarConfig().ChallengeNonceLength)
	gen := rand.NewGenerator()
	if _, err := gen.Read(buf); err != nil {
		panic(err)
	}
	return ExpectedMessage{Value: hex.EncodeToString(buf)}
}

// VerifyMessage checks whether any part of the external message contains the
// expected nonce as a substring. Substring matching accommodates users who
// reply-quote or annotate the challenge. On success the nonce is marked
// verified.
func (m *ExpectedMessage) VerifyMessage(msg *ExternalMessage) bool {
	for _, part := range msg.Values {
		if strings.Contains(part, m.Value) {
			m.IsVerified = true
			return true
		}
	}
	return false
}

// ExpectedMessageChallenge is the nonce echo challenge. Email carries a
// second, outbound-probe nonce; twitter and matrix only the first.
type ExpectedMessageChallenge struct {
	Expected ExpectedMessage  `json:"expected"`
	Second   *ExpectedMessage `json:"second"`
}

// DisplayNameCheckChallenge records the verdict of the external display name
// similarity policy.
type DisplayNameCheckChallenge struct {
	Passed     bool               `json:"passed"`
	Violations []DisplayNameEntry `json:"violations"`
}

// UnsupportedChallenge covers field kinds without an automated channel. Only
// a manual admin override can verify those.
type UnsupportedChallenge struct {
	IsVerified *bool `json:"is_verified"`
}

// ChallengeType is a tagged union over the three challenge variants. Exactly
// one member is non-nil. The variant is fixed when the field is created and
// determined solely by the field kind.
type ChallengeType struct {
	ExpectedMessage  *ExpectedMessageChallenge
	DisplayNameCheck *DisplayNameCheckChallenge
	Unsupported      *UnsupportedChallenge
}

// IsVerified reports whether the challenge has been passed.
func (c ChallengeType) IsVerified() bool {
	switch {
	case c.ExpectedMessage != nil:
		if !c.ExpectedMessage.Expected.IsVerified {
			return false
		}
		return c.ExpectedMessage.Second == nil || c.ExpectedMessage.Second.IsVerified
	case c.DisplayNameCheck != nil:
		return c.DisplayNameCheck.Passed
	case c.Unsupported != nil:
		return c.Unsupported.IsVerified != nil && *c.Unsupported.IsVerified
	default:
		return false
	}
}

// Challenge union tags.
const (
	challengeExpectedMessage  = "expected_message"
	challengeDisplayNameCheck = "display_name_check"
	challengeUnsupported      = "unsupported"
)

type challengeEnvelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the challenge as {"type": ..., "content": ...}.
func (c ChallengeType) MarshalJSON() ([]byte, error) {
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

// UnmarshalJSON decodes the tagged union form of a challenge.
func (c *ChallengeType) UnmarshalJSON(data []byte) error {
	var env challengeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*c = ChallengeType{}
	switch env.Type {
	case challengeExpectedMessage:
		c.ExpectedMessage = &ExpectedMessageChallenge{}
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

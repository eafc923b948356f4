package types

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
)

func TestNewIdentityField_ChallengeVariants(t *testing.T) {
	email := NewIdentityField(Email("alice@email.com"))
	require.NotNil(t, email.Challenge.ExpectedMessage)
	require.NotNil(t, email.Challenge.ExpectedMessage.Second, "email must carry a secondary challenge")
	assert.NotEqual(t, email.Challenge.ExpectedMessage.Expected.Value, email.Challenge.ExpectedMessage.Second.Value)

	twitter := NewIdentityField(Twitter("@alice"))
	require.NotNil(t, twitter.Challenge.ExpectedMessage)
	require.IsNil(t, twitter.Challenge.ExpectedMessage.Second, "twitter is a single stage challenge")

	matrix := NewIdentityField(Matrix("@alice:matrix.org"))
	require.NotNil(t, matrix.Challenge.ExpectedMessage)
	require.IsNil(t, matrix.Challenge.ExpectedMessage.Second)

	displayName := NewIdentityField(DisplayName("Alice"))
	require.NotNil(t, displayName.Challenge.DisplayNameCheck)
	assert.Equal(t, false, displayName.Challenge.DisplayNameCheck.Passed)

	for _, value := range []IdentityFieldValue{LegalName("Alice Wonder"), Web("alice.com"), PGPFingerprint(), Image(), Additional()} {
		field := NewIdentityField(value)
		require.NotNil(t, field.Challenge.Unsupported, "field kind %s must get an unsupported challenge", value.Kind)
		assert.Equal(t, false, field.Challenge.IsVerified())
	}
}

func TestNewExpectedMessage_Nonce(t *testing.T) {
	msg := NewExpectedMessage()
	raw, err := hex.DecodeString(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, 16, len(raw))
	assert.Equal(t, false, msg.IsVerified)

	other := NewExpectedMessage()
	assert.NotEqual(t, msg.Value, other.Value, "consecutive nonces collided")
}

func TestExpectedMessage_VerifyMessage(t *testing.T) {
	msg := NewExpectedMessage()
	external := &ExternalMessage{
		Origin: ExternalMessageOrigin{Type: OriginTwitter, Value: "@alice"},
		Values: []string{"unrelated chatter", "hi, my nonce is " + msg.Value + ", cheers"},
	}
	require.Equal(t, true, msg.VerifyMessage(external))
	assert.Equal(t, true, msg.IsVerified, "successful verification must mark the nonce")

	fresh := NewExpectedMessage()
	require.Equal(t, false, fresh.VerifyMessage(&ExternalMessage{Values: []string{"no nonce here"}}))
	assert.Equal(t, false, fresh.IsVerified)
}

func TestChallengeType_IsVerified(t *testing.T) {
	verified := true
	tests := []struct {
		name      string
		challenge ChallengeType
		want      bool
	}{
		{
			name: "expected message without second",
			challenge: ChallengeType{ExpectedMessage: &ExpectedMessageChallenge{
				Expected: ExpectedMessage{Value: "aa", IsVerified: true},
			}},
			want: true,
		},
		{
			name: "expected message with unsolved second",
			challenge: ChallengeType{ExpectedMessage: &ExpectedMessageChallenge{
				Expected: ExpectedMessage{Value: "aa", IsVerified: true},
				Second:   &ExpectedMessage{Value: "bb"},
			}},
			want: false,
		},
		{
			name: "expected message with solved second",
			challenge: ChallengeType{ExpectedMessage: &ExpectedMessageChallenge{
				Expected: ExpectedMessage{Value: "aa", IsVerified: true},
				Second:   &ExpectedMessage{Value: "bb", IsVerified: true},
			}},
			want: true,
		},
		{
			name:      "display name check passed",
			challenge: ChallengeType{DisplayNameCheck: &DisplayNameCheckChallenge{Passed: true}},
			want:      true,
		},
		{
			name:      "display name check failed",
			challenge: ChallengeType{DisplayNameCheck: &DisplayNameCheckChallenge{}},
			want:      false,
		},
		{
			name:      "unsupported unset",
			challenge: ChallengeType{Unsupported: &UnsupportedChallenge{}},
			want:      false,
		},
		{
			name:      "unsupported verified",
			challenge: ChallengeType{Unsupported: &UnsupportedChallenge{IsVerified: &verified}},
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.challenge.IsVerified())
		})
	}
}

func TestIdentityFieldValue_MatchesOrigin(t *testing.T) {
	email := Email("alice@email.com")
	assert.Equal(t, true, email.MatchesOrigin(ExternalMessageOrigin{Type: OriginEmail, Value: "alice@email.com"}))
	assert.Equal(t, false, email.MatchesOrigin(ExternalMessageOrigin{Type: OriginEmail, Value: "bob@email.com"}))
	assert.Equal(t, false, email.MatchesOrigin(ExternalMessageOrigin{Type: OriginTwitter, Value: "alice@email.com"}))

	twitter := Twitter("@alice")
	assert.Equal(t, true, twitter.MatchesOrigin(ExternalMessageOrigin{Type: OriginTwitter, Value: "@alice"}))

	legalName := LegalName("@alice")
	assert.Equal(t, false, legalName.MatchesOrigin(ExternalMessageOrigin{Type: OriginTwitter, Value: "@alice"}), "legal name has no message channel")
}

func TestIdentityFieldValue_JSONRoundTrip(t *testing.T) {
	tests := []IdentityFieldValue{
		LegalName("Alice Wonder"),
		DisplayName("Alice"),
		Email("alice@email.com"),
		Web("alice.com"),
		Twitter("@alice"),
		Matrix("@alice:matrix.org"),
		PGPFingerprint(),
		Image(),
		Additional(),
	}
	for _, value := range tests {
		enc, err := json.Marshal(value)
		require.NoError(t, err)
		var decoded IdentityFieldValue
		require.NoError(t, json.Unmarshal(enc, &decoded))
		assert.DeepEqual(t, value, decoded)
	}
}

func TestIdentityFieldValue_NullPayload(t *testing.T) {
	enc, err := json.Marshal(PGPFingerprint())
	require.NoError(t, err)
	assert.Equal(t, `{"type":"pgp_fingerprint","value":null}`, string(enc))

	var decoded IdentityFieldValue
	require.NoError(t, json.Unmarshal([]byte(`{"type":"image","value":null}`), &decoded))
	assert.DeepEqual(t, Image(), decoded)

	require.ErrorContains(t, "unknown identity field type", json.Unmarshal([]byte(`{"type":"telegram","value":"x"}`), &decoded))
}

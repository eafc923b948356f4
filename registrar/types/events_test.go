package types

import (
	"encoding/json"
	"testing"

	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
)

func TestNotificationMessage_JSONRoundTrip(t *testing.T) {
	ctx := IdentityContext{Address: "1a2YiGNu1UUhJtihq8961c7FZtWGQuWDVMWTNBKJdmpGhZP", Chain: Polkadot}
	tests := []NotificationMessage{
		IdentityInsertedNotification(ctx),
		IdentityUpdatedNotification(ctx),
		FieldVerifiedNotification(ctx, Twitter("@alice")),
		FieldVerificationFailedNotification(ctx, Email("alice@email.com")),
		SecondFieldVerifiedNotification(ctx, Email("alice@email.com")),
		SecondFieldVerificationFailedNotification(ctx, Email("alice@email.com")),
		AwaitingSecondChallengeNotification(ctx, Email("alice@email.com")),
		IdentityFullyVerifiedNotification(ctx),
		JudgementProvidedNotification(ctx),
		ManuallyVerifiedNotification(ctx, RawDisplayName),
		FullManualVerificationNotification(ctx),
	}
	for _, msg := range tests {
		t.Run(string(msg.Type), func(t *testing.T) {
			enc, err := json.Marshal(msg)
			require.NoError(t, err)
			var decoded NotificationMessage
			require.NoError(t, json.Unmarshal(enc, &decoded))
			require.DeepEqual(t, msg, decoded)
		})
	}
}

func TestNotificationMessage_WireShape(t *testing.T) {
	ctx := IdentityContext{Address: "addr", Chain: Kusama}

	enc, err := json.Marshal(FieldVerifiedNotification(ctx, Twitter("@alice")))
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"field_verified","value":{"context":{"address":"addr","chain":"kusama"},"field":{"type":"twitter","value":"@alice"}}}`,
		string(enc))

	enc, err = json.Marshal(ManuallyVerifiedNotification(ctx, RawLegalName))
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"manually_verified","value":{"context":{"address":"addr","chain":"kusama"},"field":"legal_name"}}`,
		string(enc))

	var decoded NotificationMessage
	require.ErrorContains(t, "unknown notification type", json.Unmarshal([]byte(`{"type":"nope","value":{}}`), &decoded))
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	ctx := IdentityContext{Address: "addr", Chain: Polkadot}
	event := Event{Timestamp: Now(), Event: IdentityFullyVerifiedNotification(ctx)}
	enc, err := json.Marshal(event)
	require.NoError(t, err)
	var decoded Event
	require.NoError(t, json.Unmarshal(enc, &decoded))
	require.DeepEqual(t, event, decoded)
}

func TestParseRawFieldName(t *testing.T) {
	tests := []struct {
		input string
		want  RawFieldName
	}{
		{"legalname", RawLegalName},
		{"legal_name", RawLegalName},
		{"Legal-Name", RawLegalName},
		{" DISPLAYNAME ", RawDisplayName},
		{"display_name", RawDisplayName},
		{"email", RawEmail},
		{"web", RawWeb},
		{"Twitter", RawTwitter},
		{"matrix", RawMatrix},
		{"ALL", RawAll},
	}
	for _, tt := range tests {
		got, err := ParseRawFieldName(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}

	_, err := ParseRawFieldName("telegram")
	require.ErrorIs(t, err, ErrUnknownFieldName)
}

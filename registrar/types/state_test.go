package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
)

func aliceState() *JudgementState {
	ctx := IdentityContext{Address: "1a2YiGNu1UUhJtihq8961c7FZtWGQuWDVMWTNBKJdmpGhZP", Chain: Polkadot}
	return NewJudgementState(ctx, NewIdentityFields(
		DisplayName("Alice"),
		Email("alice@email.com"),
		Twitter("@alice"),
		Matrix("@alice:matrix.org"),
	))
}

func TestJudgementState_CheckFullVerification(t *testing.T) {
	state := aliceState()
	require.Equal(t, false, state.CheckFullVerification())

	for i := range state.Fields {
		challenge := &state.Fields[i].Challenge
		switch {
		case challenge.ExpectedMessage != nil:
			challenge.ExpectedMessage.Expected.IsVerified = true
			if challenge.ExpectedMessage.Second != nil {
				challenge.ExpectedMessage.Second.IsVerified = true
			}
		case challenge.DisplayNameCheck != nil:
			challenge.DisplayNameCheck.Passed = true
		}
	}
	assert.Equal(t, true, state.CheckFullVerification())

	// One unsolved secondary challenge blocks completion.
	state.FieldByKind(KindEmail).Challenge.ExpectedMessage.Second.IsVerified = false
	assert.Equal(t, false, state.CheckFullVerification())
}

func TestJudgementState_FieldLookups(t *testing.T) {
	state := aliceState()

	field := state.FieldByValue(Twitter("@alice"))
	require.NotNil(t, field)
	assert.Equal(t, KindTwitter, field.Value.Kind)
	require.IsNil(t, state.FieldByValue(Twitter("@bob")))

	field = state.FieldByOrigin(ExternalMessageOrigin{Type: OriginMatrix, Value: "@alice:matrix.org"})
	require.NotNil(t, field)
	assert.Equal(t, KindMatrix, field.Value.Kind)
	require.IsNil(t, state.FieldByOrigin(ExternalMessageOrigin{Type: OriginMatrix, Value: "@bob:matrix.org"}))

	require.NotNil(t, state.FieldByKind(KindDisplayName))
	require.IsNil(t, state.FieldByKind(KindLegalName))
}

func TestJudgementState_JSONRoundTrip(t *testing.T) {
	state := aliceState()
	completion := Now()
	issueAt := completion.Add(120)
	state.IsFullyVerified = true
	state.CompletionTimestamp = &completion
	state.IssueJudgementAt = &issueAt
	state.Fields[0].FailedAttempts = 3

	enc, err := json.Marshal(state)
	require.NoError(t, err)
	decoded := &JudgementState{}
	require.NoError(t, json.Unmarshal(enc, decoded))
	require.DeepEqual(t, state, decoded)
}

func TestJudgementState_Blanked(t *testing.T) {
	state := aliceState()
	issueAt := Now().Add(60)
	state.IssueJudgementAt = &issueAt

	secondNonce := state.FieldByKind(KindEmail).Challenge.ExpectedMessage.Second.Value
	require.NotEqual(t, "", secondNonce)

	blanked := state.Blanked()

	enc, err := json.Marshal(blanked)
	require.NoError(t, err)
	assert.StringContains(t, state.FieldByKind(KindEmail).Challenge.ExpectedMessage.Expected.Value, string(enc), "primary nonce must stay visible")
	require.Equal(t, false, strings.Contains(string(enc), secondNonce), "secondary nonce leaked into the blanked state")
	require.Equal(t, false, strings.Contains(string(enc), "issue_judgement_at"), "issuance time leaked into the blanked state")

	// The projection must not mutate the source state.
	assert.Equal(t, secondNonce, state.FieldByKind(KindEmail).Challenge.ExpectedMessage.Second.Value)
	require.NotNil(t, state.IssueJudgementAt)

	// Projecting twice yields the same result.
	assert.DeepEqual(t, blanked, state.Blanked())
}

func TestJudgementStateBlanked_JSONRoundTrip(t *testing.T) {
	state := aliceState()
	state.FieldByKind(KindTwitter).Challenge.ExpectedMessage.Expected.IsVerified = true
	blanked := state.Blanked()

	enc, err := json.Marshal(blanked)
	require.NoError(t, err)
	decoded := &JudgementStateBlanked{}
	require.NoError(t, json.Unmarshal(enc, decoded))
	require.DeepEqual(t, blanked, decoded)
}

func TestChallengeType_JSONRoundTrip(t *testing.T) {
	verified := true
	ctx := IdentityContext{Address: "addr", Chain: Kusama}
	tests := []ChallengeType{
		{ExpectedMessage: &ExpectedMessageChallenge{Expected: NewExpectedMessage()}},
		{ExpectedMessage: &ExpectedMessageChallenge{Expected: NewExpectedMessage(), Second: func() *ExpectedMessage {
			m := NewExpectedMessage()
			return &m
		}()}},
		{DisplayNameCheck: &DisplayNameCheckChallenge{Passed: true, Violations: []DisplayNameEntry{{Context: ctx, DisplayName: "Alice"}}}},
		{Unsupported: &UnsupportedChallenge{}},
		{Unsupported: &UnsupportedChallenge{IsVerified: &verified}},
	}
	for _, challenge := range tests {
		enc, err := json.Marshal(challenge)
		require.NoError(t, err)
		var decoded ChallengeType
		require.NoError(t, json.Unmarshal(enc, &decoded))
		require.DeepEqual(t, challenge, decoded)
	}

	var decoded ChallengeType
	require.ErrorContains(t, "unknown challenge type", json.Unmarshal([]byte(`{"type":"captcha","content":{}}`), &decoded))
}

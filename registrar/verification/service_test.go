package verification

import (
	"context"
	"testing"

	"github.com/registrarlabs/registrar/registrar/db/kv"
	dbtest "github.com/registrarlabs/registrar/registrar/db/testing"
	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
	"github.com/registrarlabs/registrar/testing/util"
)

func setupService(t *testing.T) (*Service, *types.JudgementState) {
	db := dbtest.SetupDB(t)
	srv := New(context.Background(), &Config{Database: db})
	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
	})
	alice := util.NewAliceState()
	_, err := db.UpsertJudgementRequest(context.Background(), alice)
	require.NoError(t, err)
	return srv, alice
}

func eventsOfType(t *testing.T, srv *Service, want types.NotificationType) []types.NotificationMessage {
	msgs, _, err := srv.cfg.Database.Events(context.Background(), 0)
	require.NoError(t, err)
	var matched []types.NotificationMessage
	for _, msg := range msgs {
		if msg.Type == want {
			matched = append(matched, msg)
		}
	}
	return matched
}

func TestService_VerifyMessage_TwitterTransition(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()
	nonce := alice.FieldByKind(types.KindTwitter).Challenge.ExpectedMessage.Expected.Value

	err := srv.VerifyMessage(ctx, &types.ExternalMessage{
		Origin: types.ExternalMessageOrigin{Type: types.OriginTwitter, Value: "@alice"},
		Values: []string{"hi my nonce is " + nonce},
	})
	require.NoError(t, err)

	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	assert.Equal(t, true, stored.FieldByKind(types.KindTwitter).Challenge.ExpectedMessage.Expected.IsVerified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyFieldVerified)))
	// Twitter has no secondary challenge.
	require.Equal(t, 0, len(eventsOfType(t, srv, types.NotifyAwaitingSecondChallenge)))

	// Re-delivering the evidence is a no-op: the field is already verified.
	err = srv.VerifyMessage(ctx, &types.ExternalMessage{
		Origin: types.ExternalMessageOrigin{Type: types.OriginTwitter, Value: "@alice"},
		Values: []string{nonce},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyFieldVerified)))
}

func TestService_VerifyMessage_FailedAttemptIncrementsCounter(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()

	err := srv.VerifyMessage(ctx, &types.ExternalMessage{
		Origin: types.ExternalMessageOrigin{Type: types.OriginTwitter, Value: "@alice"},
		Values: []string{"no nonce in here"},
	})
	require.NoError(t, err)

	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	field := stored.FieldByKind(types.KindTwitter)
	assert.Equal(t, uint64(1), field.FailedAttempts)
	assert.Equal(t, false, field.Challenge.ExpectedMessage.Expected.IsVerified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyFieldVerificationFailed)))
	assert.Equal(t, false, stored.IsFullyVerified)
}

func TestService_VerifyMessage_UnknownOriginMatchesNothing(t *testing.T) {
	srv, _ := setupService(t)
	err := srv.VerifyMessage(context.Background(), &types.ExternalMessage{
		Origin: types.ExternalMessageOrigin{Type: types.OriginTwitter, Value: "@carol"},
		Values: []string{"anything"},
	})
	require.NoError(t, err)
	msgs, _, err := srv.cfg.Database.Events(context.Background(), 0)
	require.NoError(t, err)
	// Only the insertion event from setup.
	require.Equal(t, 1, len(msgs))
}

func TestService_EmailTwoStageVerification(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()
	email := alice.FieldByKind(types.KindEmail)
	primary := email.Challenge.ExpectedMessage.Expected.Value
	secondary := email.Challenge.ExpectedMessage.Second.Value

	// Stage one: the inbound email carries the primary nonce.
	err := srv.VerifyMessage(ctx, &types.ExternalMessage{
		Origin: types.ExternalMessageOrigin{Type: types.OriginEmail, Value: "alice@email.com"},
		Values: []string{"subject", "the code is " + primary},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyFieldVerified)))
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyAwaitingSecondChallenge)))

	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	require.Equal(t, false, stored.IsFullyVerified)

	// Verify everything else so the secondary stage is the last gap.
	for _, value := range []types.IdentityFieldValue{types.Twitter("@alice"), types.Matrix("@alice:matrix.org")} {
		_, err = srv.cfg.Database.MarkFieldPrimaryVerified(ctx, alice.Context, value)
		require.NoError(t, err)
	}
	_, err = srv.cfg.Database.MarkFieldManuallyVerified(ctx, alice.Context, types.RawDisplayName)
	require.NoError(t, err)

	// Stage two: the user pastes the secondary nonce, with whitespace noise.
	verified, err := srv.VerifySecondChallenge(ctx, &types.SecondChallengeAttempt{
		Entry:     types.Email("alice@email.com"),
		Challenge: "  here you go: " + secondary + " \n",
	})
	require.NoError(t, err)
	require.Equal(t, true, verified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifySecondFieldVerified)))

	// That was the last unverified challenge: completion fires with the
	// randomized issuance delay.
	stored, err = srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	require.Equal(t, true, stored.IsFullyVerified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyIdentityFullyVerified)))
	require.NotNil(t, stored.CompletionTimestamp)
	require.NotNil(t, stored.IssueJudgementAt)
	delay := *stored.IssueJudgementAt - *stored.CompletionTimestamp
	require.Equal(t, true, delay >= 30 && delay < 300, "issuance delay out of window: %d", delay)
}

func TestService_VerifySecondChallenge_FailureLeavesCounterAlone(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()

	verified, err := srv.VerifySecondChallenge(ctx, &types.SecondChallengeAttempt{
		Entry:     types.Email("alice@email.com"),
		Challenge: "wrong answer",
	})
	require.NoError(t, err)
	require.Equal(t, false, verified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifySecondFieldVerificationFailed)))

	// Secondary failures are not counted against the field.
	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored.FieldByKind(types.KindEmail).FailedAttempts)
}

func TestService_SecondChallenge(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()

	second, err := srv.SecondChallenge(ctx, alice.Context, types.Email("alice@email.com"))
	require.NoError(t, err)
	assert.Equal(t, alice.FieldByKind(types.KindEmail).Challenge.ExpectedMessage.Second.Value, second.Value)

	_, err = srv.SecondChallenge(ctx, alice.Context, types.Twitter("@alice"))
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestService_VerifyManually(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()

	matched, err := srv.VerifyManually(ctx, alice.Context, types.RawEmail, true)
	require.NoError(t, err)
	require.Equal(t, true, matched)

	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	email := stored.FieldByKind(types.KindEmail)
	assert.Equal(t, true, email.Challenge.ExpectedMessage.Expected.IsVerified)
	assert.Equal(t, true, email.Challenge.ExpectedMessage.Second.IsVerified)
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyManuallyVerified)))

	// The "all" meta-name is not a valid single-field target.
	_, err = srv.VerifyManually(ctx, alice.Context, types.RawAll, true)
	require.ErrorIs(t, err, ErrMetaFieldTarget)

	// Names the identity does not declare report no match.
	matched, err = srv.VerifyManually(ctx, alice.Context, types.RawLegalName, true)
	require.NoError(t, err)
	require.Equal(t, false, matched)
}

func TestService_FullManualVerification(t *testing.T) {
	srv, alice := setupService(t)
	ctx := context.Background()

	modified, err := srv.FullManualVerification(ctx, alice.Context)
	require.NoError(t, err)
	require.Equal(t, true, modified)

	stored, err := srv.cfg.Database.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	require.Equal(t, true, stored.IsFullyVerified)
	for _, field := range stored.Fields {
		assert.Equal(t, true, field.Challenge.IsVerified(), "field %s not verified", field.Value.Kind)
	}
	require.Equal(t, 1, len(eventsOfType(t, srv, types.NotifyFullManualVerification)))
	// The batched per-field overrides do not emit individual events.
	require.Equal(t, 0, len(eventsOfType(t, srv, types.NotifyManuallyVerified)))

	modified, err = srv.FullManualVerification(ctx, types.IdentityContext{Address: "1unknown", Chain: types.Polkadot})
	require.NoError(t, err)
	require.Equal(t, false, modified)
}

package kv

import (
	"context"
	"testing"

	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
	"github.com/registrarlabs/registrar/testing/util"
)

func TestStore_UpsertDisplayName(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	entry := types.DisplayNameEntry{Context: util.AliceContext(), DisplayName: "Alice"}

	require.NoError(t, db.UpsertDisplayName(ctx, entry))
	require.NoError(t, db.UpsertDisplayName(ctx, entry))

	names, err := db.DisplayNames(ctx, types.Polkadot)
	require.NoError(t, err)
	require.Equal(t, 1, len(names))
	assert.DeepEqual(t, entry, names[0])
}

func TestStore_DisplayNames_PerChain(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertDisplayName(ctx, types.DisplayNameEntry{Context: util.AliceContext(), DisplayName: "Alice"}))
	require.NoError(t, db.UpsertDisplayName(ctx, types.DisplayNameEntry{Context: util.BobContext(), DisplayName: "Bob"}))

	names, err := db.DisplayNames(ctx, types.Polkadot)
	require.NoError(t, err)
	require.Equal(t, 1, len(names))
	assert.Equal(t, "Alice", names[0].DisplayName)

	names, err = db.DisplayNames(ctx, types.Kusama)
	require.NoError(t, err)
	require.Equal(t, 1, len(names))
	assert.Equal(t, "Bob", names[0].DisplayName)
}

func TestStore_SetDisplayNameValid(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	alice := util.NewAliceState()
	_, err := db.UpsertJudgementRequest(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, db.SetDisplayNameValid(ctx, alice))
	stored, err := db.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	require.Equal(t, true, stored.FieldByKind(types.KindDisplayName).Challenge.DisplayNameCheck.Passed)

	// Repeated verdicts do not duplicate the event.
	require.NoError(t, db.SetDisplayNameValid(ctx, alice))
	msgs, _, err := db.Events(ctx, 0)
	require.NoError(t, err)
	verified := 0
	for _, msg := range msgs {
		if msg.Type == types.NotifyFieldVerified {
			verified++
		}
	}
	assert.Equal(t, 1, verified)
}

func TestStore_SetDisplayNameValid_TriggersCompletion(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	// Alice's display name is her only field, so a passing verdict completes
	// the whole state.
	alice := types.NewJudgementState(util.AliceContext(), types.NewIdentityFields(
		types.DisplayName("Alice"),
	))
	_, err := db.UpsertJudgementRequest(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, db.SetDisplayNameValid(ctx, alice))
	stored, err := db.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	assert.Equal(t, true, stored.IsFullyVerified)
	require.NotNil(t, stored.CompletionTimestamp)
}

func TestStore_SetDisplayNameViolations(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	alice := util.NewAliceState()
	_, err := db.UpsertJudgementRequest(ctx, alice)
	require.NoError(t, err)

	violations := []types.DisplayNameEntry{
		{Context: util.BobContext(), DisplayName: "A1ice"},
	}
	require.NoError(t, db.SetDisplayNameViolations(ctx, alice.Context, violations))

	stored, err := db.JudgementState(ctx, alice.Context)
	require.NoError(t, err)
	check := stored.FieldByKind(types.KindDisplayName).Challenge.DisplayNameCheck
	require.Equal(t, false, check.Passed)
	require.Equal(t, 1, len(check.Violations))
	assert.Equal(t, "A1ice", check.Violations[0].DisplayName)
}

func TestStore_SetDisplayNameVerdict_MissingState(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := db.SetDisplayNameValid(ctx, util.NewAliceState())
	require.ErrorIs(t, err, ErrNotFound)
	err = db.SetDisplayNameViolations(ctx, util.AliceContext(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

package kv

import (
	"context"
	"testing"

	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
	"github.com/registrarlabs/registrar/testing/util"
)

func TestStore_Events_CursorSemantics(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	id := util.AliceContext()

	// Empty log: the cursor comes back unchanged.
	msgs, latest, err := db.Events(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 0, len(msgs))
	require.Equal(t, types.Timestamp(42), latest)

	require.NoError(t, db.InsertEvent(ctx, types.IdentityInsertedNotification(id)))
	require.NoError(t, db.InsertEvent(ctx, types.FieldVerifiedNotification(id, types.Twitter("@alice"))))
	require.NoError(t, db.InsertEvent(ctx, types.IdentityFullyVerifiedNotification(id)))

	msgs, latest, err = db.Events(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 3, len(msgs))
	require.Equal(t, true, latest >= types.Now()-5)

	// Same-second appends keep insertion order.
	assert.Equal(t, types.NotifyIdentityInserted, msgs[0].Type)
	assert.Equal(t, types.NotifyFieldVerified, msgs[1].Type)
	assert.Equal(t, types.NotifyIdentityFullyVerified, msgs[2].Type)

	// The returned cursor excludes everything already seen.
	msgs, relatest, err := db.Events(ctx, latest)
	require.NoError(t, err)
	require.Equal(t, 0, len(msgs))
	require.Equal(t, latest, relatest)
}

func TestStore_Events_StrictlyAfter(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	id := util.AliceContext()

	require.NoError(t, db.InsertEvent(ctx, types.IdentityInsertedNotification(id)))
	now := types.Now()

	// A cursor at the event's own timestamp must not return it.
	msgs, _, err := db.Events(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 0, len(msgs))
}

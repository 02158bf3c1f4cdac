package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sovanasrala/fitgroup-bot/internal/fitness"
	"github.com/sovanasrala/fitgroup-bot/internal/fitness/fitnesstest"
	"github.com/sovanasrala/fitgroup-bot/internal/menu"
)

func TestRepinDropsPointerFirst(t *testing.T) {
	st := fitnesstest.NewMemStore()
	svc := fitness.NewService(st, time.UTC, nil)
	v := NewView(menu.NewRenderer(svc), st)
	ctx := context.Background()

	require.NoError(t, st.SetMenuMessageID(ctx, -1, 42))

	// No transport attached: the redraw fails, but the stale pointer must
	// already be gone so the next refresh sends a fresh menu.
	err := v.Repin(ctx, -1)
	require.ErrorIs(t, err, errTransportDown)

	id, err := st.MenuMessageID(ctx, -1)
	require.NoError(t, err)
	require.Zero(t, id)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamtrading/siteserver/internal/events"
)

func TestProbeWithoutConfigNeverConnects(t *testing.T) {
	p := NewProbe(nil, false)
	assert.False(t, p.HasConfig())
	assert.False(t, p.CheckAvailability(context.Background()))
	assert.False(t, p.ForceRecheck(context.Background()))
}

func TestProbeCachesVerdict(t *testing.T) {
	db := newTestDB(t)
	p := NewProbe(db, true)
	ctx := context.Background()

	assert.True(t, p.CheckAvailability(ctx))

	// break the connection; the cached verdict still stands
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.True(t, p.CheckAvailability(ctx))

	// an explicit recheck sees the failure
	assert.False(t, p.ForceRecheck(ctx))
	assert.False(t, p.CheckAvailability(ctx))
}

func TestDispatcherRoutesToDatabaseWhenAvailable(t *testing.T) {
	local := newTestLocal(t, 0, nil)
	remote := newTestRemote(t, nil)
	d := NewDispatcher(local, remote, NewProbe(remote.DB(), true), nil)
	ctx := context.Background()

	assert.Equal(t, ModeDatabase, d.Mode(ctx))

	// writes land remotely, not in the local blobs
	_, err := d.AddProduct(ctx, newProduct("Routed", "Pipes"))
	require.NoError(t, err)
	products, err := remote.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	_, exists, err := local.peekList(keyProducts)
	require.NoError(t, err)
	assert.False(t, exists)

	status := d.ConnectionStatus(ctx)
	assert.Equal(t, ModeDatabase, status.Mode)
	assert.True(t, status.Connected)
	assert.True(t, status.HasEnvironmentVars)
	assert.False(t, status.ForceLocal)
}

func TestDispatcherFallsBackWithoutConfig(t *testing.T) {
	local := newTestLocal(t, 0, nil)
	d := NewDispatcher(local, nil, NewProbe(nil, false), nil)
	ctx := context.Background()

	assert.Equal(t, ModeLocal, d.Mode(ctx))

	products, err := d.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4) // local seed

	status := d.ConnectionStatus(ctx)
	assert.Equal(t, ModeLocal, status.Mode)
	assert.False(t, status.Connected)
	assert.False(t, status.HasEnvironmentVars)
}

func TestDispatcherForceLocalOverridesProbe(t *testing.T) {
	local := newTestLocal(t, 0, nil)
	remote := newTestRemote(t, nil)
	d := NewDispatcher(local, remote, NewProbe(remote.DB(), true), nil)
	ctx := context.Background()

	require.NoError(t, d.SetForceLocal(true))
	assert.Equal(t, ModeLocal, d.Mode(ctx))
	assert.True(t, d.ConnectionStatus(ctx).ForceLocal)

	// flipping back re-routes without a new probe
	require.NoError(t, d.SetForceLocal(false))
	assert.Equal(t, ModeDatabase, d.Mode(ctx))
}

func TestDispatcherReconnectEmitsOnSuccess(t *testing.T) {
	bus := events.NewBus()
	reconnects := 0
	bus.On(events.DatabaseReconnected, func(events.Event) { reconnects++ })

	local := newTestLocal(t, 0, bus)
	remote := newTestRemote(t, bus)
	d := NewDispatcher(local, remote, NewProbe(remote.DB(), true), bus)
	ctx := context.Background()

	status := d.Reconnect(ctx)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, reconnects)

	// a failed recheck stays quiet
	sqlDB, err := remote.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	status = d.Reconnect(ctx)
	assert.False(t, status.Connected)
	assert.Equal(t, ModeLocal, status.Mode)
	assert.Equal(t, 1, reconnects)
}

package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sensasi-chat/internal/services"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationExecutorSuccess(t *testing.T) {
	exec := services.NewMutationExecutor(func(_ context.Context, v int) (string, error) {
		return fmt.Sprintf("got %d", v), nil
	})

	snap := exec.Snapshot()
	assert.Equal(t, services.MutationIdle, snap.State)
	assert.Nil(t, snap.Data)
	assert.NoError(t, snap.Err)

	out, err := exec.Mutate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "got 7", out)

	snap = exec.Snapshot()
	assert.Equal(t, services.MutationSuccess, snap.State)
	require.NotNil(t, snap.Data)
	assert.Equal(t, "got 7", *snap.Data)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.InFlight)
}

func TestMutationExecutorFailure(t *testing.T) {
	boom := errors.New("boom")
	exec := services.NewMutationExecutor(func(_ context.Context, _ int) (string, error) {
		return "", boom
	})

	_, err := exec.Mutate(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	snap := exec.Snapshot()
	assert.Equal(t, services.MutationFailure, snap.State)
	assert.Nil(t, snap.Data, "a failed mutation must not leave stale data behind")
	assert.ErrorIs(t, snap.Err, boom)
	assert.False(t, snap.InFlight)
}

func TestMutationExecutorRecoversPanic(t *testing.T) {
	exec := services.NewMutationExecutor(func(_ context.Context, _ int) (string, error) {
		panic("unexpected")
	})

	_, err := exec.Mutate(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, sensasi_errors.ErrTransient)

	snap := exec.Snapshot()
	assert.Equal(t, services.MutationFailure, snap.State)
	assert.ErrorIs(t, snap.Err, sensasi_errors.ErrTransient)
}

func TestMutationExecutorReset(t *testing.T) {
	exec := services.NewMutationExecutor(func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})

	_, err := exec.Mutate(context.Background(), 3)
	require.NoError(t, err)

	exec.Reset()

	snap := exec.Snapshot()
	assert.Equal(t, services.MutationIdle, snap.State)
	assert.Nil(t, snap.Data)
	assert.NoError(t, snap.Err)
}

func TestMutationExecutorResetDoesNotAbortInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := services.NewMutationExecutor(func(_ context.Context, v int) (int, error) {
		close(started)
		<-release
		return v, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = exec.Mutate(context.Background(), 42)
	}()
	<-started

	snap := exec.Snapshot()
	assert.Equal(t, services.MutationLoading, snap.State)
	assert.True(t, snap.InFlight)

	// Reset while the call is still running: outcome cleared, call kept.
	exec.Reset()
	snap = exec.Snapshot()
	assert.Equal(t, services.MutationLoading, snap.State)
	assert.True(t, snap.InFlight)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mutation never finished")
	}

	// The in-flight call still publishes its own outcome.
	snap = exec.Snapshot()
	assert.Equal(t, services.MutationSuccess, snap.State)
	require.NotNil(t, snap.Data)
	assert.Equal(t, 42, *snap.Data)
	assert.False(t, snap.InFlight)
}

func TestMutationExecutorLastWriteWins(t *testing.T) {
	exec := services.NewMutationExecutor(func(_ context.Context, v int) (int, error) {
		return v, nil
	})

	_, err := exec.Mutate(context.Background(), 1)
	require.NoError(t, err)
	_, err = exec.Mutate(context.Background(), 2)
	require.NoError(t, err)

	snap := exec.Snapshot()
	require.NotNil(t, snap.Data)
	assert.Equal(t, 2, *snap.Data, "the snapshot holds the most recent completion")
}

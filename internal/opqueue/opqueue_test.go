package opqueue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/opqueue"
)

func TestSubmitAndWaitAppliesOperationsInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error {
		mu.Lock()
		seen = append(seen, op.Path)
		mu.Unlock()
		return nil
	}, 4)
	defer q.Close()

	txn := opqueue.NewTransaction([]opqueue.Operation{
		{Kind: opqueue.OpCreateFile, Path: "a.txt"},
		{Kind: opqueue.OpWrite, Path: "b.txt"},
		{Kind: opqueue.OpDelete, Path: "c.txt"},
	})

	result, err := q.SubmitAndWait(context.Background(), txn)
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	assert.Equal(t, 3, result.Applied)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, seen)
}

func TestSubmitAndWaitAbortsTransactionOnFirstFailure(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error {
		mu.Lock()
		seen = append(seen, op.Path)
		mu.Unlock()
		if op.Path == "bad.txt" {
			return corefail.New(corefail.Internal, "simulated failure")
		}
		return nil
	}, 4)
	defer q.Close()

	txn := opqueue.NewTransaction([]opqueue.Operation{
		{Kind: opqueue.OpWrite, Path: "good.txt"},
		{Kind: opqueue.OpWrite, Path: "bad.txt"},
		{Kind: opqueue.OpWrite, Path: "never-reached.txt"},
	})

	result, err := q.SubmitAndWait(context.Background(), txn)
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.Equal(t, "bad.txt", result.FailedPath)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, []string{"good.txt", "bad.txt"}, seen)
}

func TestWaitUntilIdleBlocksUntilAllSubmittedTransactionsApplied(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error {
		started <- struct{}{}
		<-release
		return nil
	}, 4)
	defer q.Close()

	wait, err := q.Submit(context.Background(), opqueue.NewTransaction([]opqueue.Operation{
		{Kind: opqueue.OpWrite, Path: "slow.txt"},
	}))
	require.NoError(t, err)
	<-started

	idleDone := make(chan error, 1)
	go func() { idleDone <- q.WaitUntilIdle(context.Background()) }()

	select {
	case <-idleDone:
		t.Fatal("WaitUntilIdle returned before the in-flight transaction finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-idleDone)
	result := wait()
	assert.NoError(t, result.Err)
}

func TestSubmitAfterCloseFails(t *testing.T) {
	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error { return nil }, 1)
	q.Close()

	_, err := q.Submit(context.Background(), opqueue.NewTransaction(nil))
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.InvalidRequest))
}

func TestNewTransactionAssignsUniqueIDs(t *testing.T) {
	a := opqueue.NewTransaction(nil)
	b := opqueue.NewTransaction(nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

// Package opqueue implements the Operation Queue (spec.md §4.G): a
// single-consumer work queue serializing filesystem mutations, grouped
// into transactions that are appended atomically and applied in
// submission order, with a wait_until_idle primitive callers block on
// once they need every previously submitted transaction drained.
//
// Grounded on the select/channel/goroutine idiom
// internal/utils/detector/detector.go uses for its terminal-response
// read (a result channel paired with a context-driven timeout via
// select), generalized here into a persistent consumer goroutine
// instead of a one-shot read, and on spec.md §4.G/§5's description of
// the queue as the second shared serialized structure (alongside the
// import cache) in the concurrency model.
package opqueue

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nsavage/relocore/internal/corefail"
)

// OpKind is the filesystem mutation an Operation performs.
type OpKind string

const (
	OpCreateDir  OpKind = "create_dir"
	OpCreateFile OpKind = "create_file"
	OpWrite      OpKind = "write"
	OpDelete     OpKind = "delete"
	OpRename     OpKind = "rename"
)

// Operation is one filesystem mutation, tagged with the path it targets
// and a kind-specific payload (the new file content for OpWrite/
// OpCreateFile, the destination path for OpRename, unused otherwise).
type Operation struct {
	Kind    OpKind
	Path    string
	Payload []byte
}

// Handler performs the filesystem side effect of a single Operation.
// Submitters supply one Handler per queue; the queue itself never
// touches a filesystem directly, keeping this package testable without
// afero.
type Handler func(ctx context.Context, op Operation) error

// Transaction is a group of operations appended to the queue
// atomically: every operation in it runs before the consumer starts the
// next transaction, and a failure partway through aborts the remaining
// operations in the same transaction without halting the worker.
type Transaction struct {
	ID         string
	Operations []Operation
}

// Result reports what happened to one submitted transaction.
type Result struct {
	TransactionID string
	Applied       int
	Err           error
	FailedPath    string
}

type job struct {
	txn  Transaction
	done chan Result
}

// Queue is a single-consumer operation queue. The zero value is not
// usable; construct with New.
type Queue struct {
	handler Handler
	jobs    chan job

	mu      sync.Mutex
	pending int

	idleCh chan chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New starts a Queue's consumer goroutine, routing every accepted
// operation to handler. capacity bounds how many transactions may be
// queued ahead of the consumer before Submit blocks; 0 means unbuffered
// (Submit blocks until the consumer is ready for that transaction).
func New(handler Handler, capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	q := &Queue{
		handler: handler,
		jobs:    make(chan job, capacity),
		idleCh:  make(chan chan struct{}),
		closed:  make(chan struct{}),
	}
	go q.run()
	return q
}

// NewTransaction assigns a fresh UUID transaction ID to ops.
func NewTransaction(ops []Operation) Transaction {
	return Transaction{ID: uuid.NewString(), Operations: ops}
}

// Submit appends txn to the queue and returns immediately; the caller
// receives txn's Result asynchronously by calling the returned
// function, which blocks until that specific transaction has run.
func (q *Queue) Submit(ctx context.Context, txn Transaction) (func() Result, error) {
	select {
	case <-q.closed:
		return nil, corefail.New(corefail.InvalidRequest, "operation queue is closed")
	default:
	}

	q.mu.Lock()
	q.pending++
	q.mu.Unlock()

	j := job{txn: txn, done: make(chan Result, 1)}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
		return nil, corefail.Wrap(corefail.Cancelled, ctx.Err(), "submitting transaction %s", txn.ID)
	case <-q.closed:
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
		return nil, corefail.New(corefail.InvalidRequest, "operation queue is closed")
	}

	return func() Result { return <-j.done }, nil
}

// SubmitAndWait is Submit followed immediately by waiting for the
// transaction's own Result, for callers that have no use for fire-and-
// forget submission.
func (q *Queue) SubmitAndWait(ctx context.Context, txn Transaction) (Result, error) {
	wait, err := q.Submit(ctx, txn)
	if err != nil {
		return Result{}, err
	}
	return wait(), nil
}

// WaitUntilIdle blocks until every transaction submitted before this
// call has been applied. Transactions submitted concurrently with (or
// after) the call are not guaranteed to be included.
func (q *Queue) WaitUntilIdle(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case q.idleCh <- ack:
	case <-ctx.Done():
		return corefail.Wrap(corefail.Cancelled, ctx.Err(), "waiting for operation queue idle")
	case <-q.closed:
		return nil
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return corefail.Wrap(corefail.Cancelled, ctx.Err(), "waiting for operation queue idle")
	}
}

// Close stops accepting new transactions. In-flight and already-queued
// transactions still run to completion; Close does not cancel them.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// run is the single consumer: it drains q.jobs, applying each
// transaction's operations in order, and services idle requests
// in-between jobs rather than via a separate goroutine, so an idle
// acknowledgement is only ever sent once q.jobs is empty and no job is
// mid-flight.
func (q *Queue) run() {
	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				return
			}
			q.applyTransaction(j)
		case ack := <-q.idleCh:
			q.drainIdleRequests(ack)
		}
	}
}

// drainIdleRequests services one idle request, then keeps servicing
// immediately-available ones and jobs until q.jobs has nothing pending,
// at which point every accumulated idle request is acknowledged
// together.
func (q *Queue) drainIdleRequests(first chan struct{}) {
	pendingAcks := []chan struct{}{first}
	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				for _, ack := range pendingAcks {
					close(ack)
				}
				return
			}
			q.applyTransaction(j)
			continue
		default:
		}

		q.mu.Lock()
		idle := q.pending == 0
		q.mu.Unlock()
		if idle {
			for _, ack := range pendingAcks {
				close(ack)
			}
			return
		}

		select {
		case j, ok := <-q.jobs:
			if !ok {
				for _, ack := range pendingAcks {
					close(ack)
				}
				return
			}
			q.applyTransaction(j)
		case ack := <-q.idleCh:
			pendingAcks = append(pendingAcks, ack)
		}
	}
}

// applyTransaction runs every operation in j.txn in order, stopping at
// the first failure (spec.md §4.G: "Failure of an individual operation
// aborts the current transaction but does not halt the queue worker").
func (q *Queue) applyTransaction(j job) {
	defer func() {
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
	}()

	applied := 0
	for _, op := range j.txn.Operations {
		if err := q.handler(context.Background(), op); err != nil {
			j.done <- Result{TransactionID: j.txn.ID, Applied: applied, Err: err, FailedPath: op.Path}
			return
		}
		applied++
	}
	j.done <- Result{TransactionID: j.txn.ID, Applied: applied}
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/plateful/plateful/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkIngestor loads large user and follow-edge datasets into the
// engine using worker pools.
type BulkIngestor struct {
	engine  *Engine
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(engine *Engine, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		engine:  engine,
		workers: workers,
	}
}

// IngestUsers creates reputation records (and optional specializations)
// for the provided seeds concurrently.
func (bi *BulkIngestor) IngestUsers(ctx context.Context, users []UserSeed) error {
	return bi.run(ctx, len(users), func(idx int) error {
		seed := users[idx]
		patch := domain.ReputationPatch{}
		if len(seed.Specializations) > 0 {
			patch.Specializations = &seed.Specializations
		}
		_, err := bi.engine.Reputation.UpdateProfile(ctx, seed.ID, patch)
		return err
	})
}

// IngestFollows creates follow edges concurrently. Duplicate edges in
// the dataset are skipped, not reported as failures.
func (bi *BulkIngestor) IngestFollows(ctx context.Context, follows []FollowSeed) error {
	return bi.run(ctx, len(follows), func(idx int) error {
		seed := follows[idx]
		_, err := bi.engine.Relationships.Follow(ctx, seed.FollowerID, seed.FollowedID)
		if domain.IsKind(err, domain.KindConflict) {
			return nil
		}
		return err
	})
}

// IngestVotes replays historical votes concurrently.
func (bi *BulkIngestor) IngestVotes(ctx context.Context, votes []VoteSeed) error {
	return bi.run(ctx, len(votes), func(idx int) error {
		_, err := bi.engine.Reputation.ApplyVote(ctx, votes[idx].AuthorID, votes[idx].Upvote)
		return err
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}

package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/cache"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
)

// StatusInfo is the observable fast-path state of one participant.
type StatusInfo struct {
	Status      cache.Status
	MatchedWith string
	JoinedAt    time.Time
}

// Service implements the fast-path queue operations on top of the Redis
// representation. All state lives behind RedisCache; the worker and this
// service are its only writers.
type Service struct {
	appCtx   *app.AppContext
	debounce time.Duration
}

func NewService(appCtx *app.AppContext, debounce time.Duration) *Service {
	return &Service{appCtx: appCtx, debounce: debounce}
}

// Join registers the participant in the fast-path queue.
//
// Rejections:
//   - ErrAlreadyInQueue while WAITING or MATCHED
//   - ErrTooManyRequests when re-joining inside the debounce window
func (s *Service) Join(ctx context.Context, userID uuid.UUID, gender string) (cache.Status, error) {
	id := userID.String()
	rdb := s.appCtx.RedisCache

	status, err := rdb.GetStatus(ctx, id)
	if err != nil {
		return cache.StatusIdle, err
	}
	if status == cache.StatusWaiting || status == cache.StatusMatched {
		return cache.StatusIdle, svcErr.ErrAlreadyInQueue
	}

	lastJoinAt, err := rdb.GetLastJoinAt(ctx, id)
	if err != nil {
		return cache.StatusIdle, err
	}
	now := time.Now()
	if lastJoinAt != 0 && now.UnixMilli()-lastJoinAt < s.debounce.Milliseconds() {
		return cache.StatusIdle, svcErr.ErrTooManyRequests
	}

	if err := rdb.SetStatus(ctx, id, cache.StatusWaiting); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.SetLastJoinAt(ctx, id, now); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.SetGender(ctx, id, gender); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.AddToQueue(ctx, id, now.UnixMilli()); err != nil {
		return cache.StatusIdle, err
	}

	s.appCtx.Logger.Debug("user joined queue", "user", id, "gender", gender)
	return cache.StatusWaiting, nil
}

// Leave removes a waiting participant from the queue.
//
// Rejections:
//   - ErrCannotLeaveMatched while MATCHED (acknowledge instead)
//   - ErrNotInQueue while IDLE
func (s *Service) Leave(ctx context.Context, userID uuid.UUID) (cache.Status, error) {
	id := userID.String()
	rdb := s.appCtx.RedisCache

	status, err := rdb.GetStatus(ctx, id)
	if err != nil {
		return cache.StatusIdle, err
	}
	switch status {
	case cache.StatusMatched:
		return cache.StatusIdle, svcErr.ErrCannotLeaveMatched
	case cache.StatusIdle:
		return cache.StatusIdle, svcErr.ErrNotInQueue
	}

	if err := rdb.RemoveFromQueue(ctx, id); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.SetStatus(ctx, id, cache.StatusIdle); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.DeleteMatchedWith(ctx, id); err != nil {
		return cache.StatusIdle, err
	}

	s.appCtx.Logger.Debug("user left queue", "user", id)
	return cache.StatusIdle, nil
}

// Status reports the participant's current state. MatchedWith is only set
// while MATCHED; JoinedAt only while WAITING.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*StatusInfo, error) {
	id := userID.String()
	rdb := s.appCtx.RedisCache

	status, err := rdb.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{Status: status}

	switch status {
	case cache.StatusMatched:
		matchedWith, err := rdb.GetMatchedWith(ctx, id)
		if err != nil {
			return nil, err
		}
		info.MatchedWith = matchedWith
	case cache.StatusWaiting:
		lastJoinAt, err := rdb.GetLastJoinAt(ctx, id)
		if err != nil {
			return nil, err
		}
		if lastJoinAt != 0 {
			info.JoinedAt = time.UnixMilli(lastJoinAt)
		}
	}

	return info, nil
}

// Acknowledge returns a matched participant to IDLE after it consumed the
// match. Always allowed.
func (s *Service) Acknowledge(ctx context.Context, userID uuid.UUID) (cache.Status, error) {
	id := userID.String()
	rdb := s.appCtx.RedisCache

	if err := rdb.SetStatus(ctx, id, cache.StatusIdle); err != nil {
		return cache.StatusIdle, err
	}
	if err := rdb.DeleteMatchedWith(ctx, id); err != nil {
		return cache.StatusIdle, err
	}

	s.appCtx.Logger.Debug("user acknowledged match", "user", id)
	return cache.StatusIdle, nil
}

// Package calls manages call session lifecycle: offer/answer/ICE relay,
// missed-call accounting, and call history.
package calls

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// Broadcaster is the fan-out surface for signaling relays. Connection count
// doubles as the reachability check.
type Broadcaster interface {
	BroadcastToUser(userID, event string, data any)
	UserConnectionCount(userID string) int
}

// Engine drives the call session state machine. Sessions are inserted with
// status "missed" before anything else happens, so every early failure path
// leaves a correct history row without extra bookkeeping. An unreachable
// target or unknown caller is a normal transition to missed, not an error.
type Engine struct {
	calls  repositories.CallRepository
	users  repositories.UserRepository
	fanout Broadcaster

	offerTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewEngine constructs an Engine. offerTTL bounds how long a relayed offer
// may ring unanswered before the session auto-finalizes as missed.
func NewEngine(calls repositories.CallRepository, users repositories.UserRepository, fanout Broadcaster, offerTTL time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		calls:    calls,
		users:    users,
		fanout:   fanout,
		offerTTL: offerTTL,
		now:      time.Now,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}
}

// HandleOffer records the session and relays the offer, embedding the
// caller's public profile, to the callee's personal room. If the callee is
// unreachable or the caller unknown the session stays missed and the caller
// gets an end_call with the reason.
func (e *Engine) HandleOffer(ctx context.Context, offer models.OfferSignal) error {
	if offer.CallSessionID == "" {
		offer.CallSessionID = uuid.NewString()
	}

	callType := models.CallAudio
	if offer.IsVideoCall {
		callType = models.CallVideo
	}
	session := models.CallSession{
		CallSessionID: offer.CallSessionID,
		CallerID:      offer.From,
		ReceiverID:    offer.To,
		CallType:      callType,
		Status:        models.CallMissed,
		StartTime:     e.now().UTC(),
	}
	if err := e.calls.Create(ctx, session); err != nil {
		return fmt.Errorf("create call session: %w", err)
	}

	if e.fanout.UserConnectionCount(offer.To) == 0 {
		observability.IncCall(string(models.CallMissed))
		e.fanout.BroadcastToUser(offer.From, models.EvEndCall, models.EndCallNotice{
			CallSessionID: offer.CallSessionID,
			Message:       "user is not online",
		})
		return nil
	}

	caller, err := e.users.Get(ctx, offer.From)
	if err != nil {
		observability.IncCall(string(models.CallMissed))
		e.fanout.BroadcastToUser(offer.From, models.EvEndCall, models.EndCallNotice{
			CallSessionID: offer.CallSessionID,
			Message:       "user not found",
		})
		return nil
	}

	profile := caller.Profile()
	offer.UserInfo = &profile
	e.fanout.BroadcastToUser(offer.To, models.EvOffer, offer)

	e.scheduleExpiry(offer.CallSessionID, offer.From)
	return nil
}

// HandleAnswer transitions the session to ongoing and relays the answer,
// embedding the callee's public profile. Unreachable/unknown handling mirrors
// the offer path.
func (e *Engine) HandleAnswer(ctx context.Context, answer models.AnswerSignal) error {
	if e.fanout.UserConnectionCount(answer.To) == 0 {
		if err := e.calls.SetStatus(ctx, answer.CallSessionID, models.CallMissed); err != nil {
			e.log.Error().Err(err).Str("call_session_id", answer.CallSessionID).Msg("mark session missed failed")
		}
		e.fanout.BroadcastToUser(answer.From, models.EvEndCall, models.EndCallNotice{
			CallSessionID: answer.CallSessionID,
			Message:       "user is not online",
		})
		return nil
	}

	callee, err := e.users.Get(ctx, answer.From)
	if err != nil {
		if err := e.calls.SetStatus(ctx, answer.CallSessionID, models.CallMissed); err != nil {
			e.log.Error().Err(err).Str("call_session_id", answer.CallSessionID).Msg("mark session missed failed")
		}
		e.fanout.BroadcastToUser(answer.From, models.EvEndCall, models.EndCallNotice{
			CallSessionID: answer.CallSessionID,
			Message:       "user not found",
		})
		return nil
	}

	if err := e.calls.SetStatus(ctx, answer.CallSessionID, models.CallOngoing); err != nil {
		return fmt.Errorf("mark session ongoing: %w", err)
	}
	e.cancelExpiry(answer.CallSessionID)
	observability.IncCall(string(models.CallOngoing))

	profile := callee.Profile()
	answer.UserInfo = &profile
	e.fanout.BroadcastToUser(answer.To, models.EvAnswer, answer)
	return nil
}

// RelayICE forwards a candidate to the target's personal room. No
// persistence, no state transition; an unreachable target drops the
// candidate silently.
func (e *Engine) RelayICE(ice models.IceSignal) {
	if e.fanout.UserConnectionCount(ice.To) == 0 {
		return
	}
	e.fanout.BroadcastToUser(ice.To, models.EvIceCandidate, ice)
}

// EndCall finalizes the session as completed and relays end_call to the other
// party. Duration counts only for a genuine hang-up; teardown after a failed
// negotiation records zero. An unknown session id is a client programming
// error, surfaced as repositories.ErrCallSessionNotFound.
func (e *Engine) EndCall(ctx context.Context, signal models.EndCallSignal) error {
	record, err := e.calls.Get(ctx, signal.CallSessionID)
	if err != nil {
		return err
	}

	end := e.now().UTC()
	duration := 0
	if signal.IsHangUp {
		duration = int(end.Sub(record.StartTime) / time.Second)
		if duration < 0 {
			duration = 0
		}
	}
	if err := e.calls.Finalize(ctx, signal.CallSessionID, models.CallCompleted, end, duration, "user_ended"); err != nil {
		return fmt.Errorf("finalize call: %w", err)
	}
	e.cancelExpiry(signal.CallSessionID)
	observability.IncCall(string(models.CallCompleted))

	e.fanout.BroadcastToUser(signal.To, models.EvEndCall, models.EndCallNotice{CallSessionID: signal.CallSessionID})
	return nil
}

// History returns the user's call log, newest first, with direction and the
// opposite party's profile resolved.
func (e *Engine) History(ctx context.Context, userID string) ([]models.CallLogEntry, error) {
	sessions, err := e.calls.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load call history: %w", err)
	}

	otherIDs := make([]string, 0, len(sessions))
	seen := map[string]struct{}{}
	for _, s := range sessions {
		other := s.ReceiverID
		if other == userID {
			other = s.CallerID
		}
		if _, dup := seen[other]; !dup {
			seen[other] = struct{}{}
			otherIDs = append(otherIDs, other)
		}
	}

	profiles := map[string]models.UserProfile{}
	if len(otherIDs) > 0 {
		users, err := e.users.BulkGet(ctx, otherIDs)
		if err != nil {
			return nil, fmt.Errorf("load call participants: %w", err)
		}
		for _, u := range users {
			profiles[u.ID] = u.Profile()
		}
	}

	entries := make([]models.CallLogEntry, 0, len(sessions))
	for _, s := range sessions {
		direction := "incoming"
		other := s.CallerID
		if s.CallerID == userID {
			direction = "outgoing"
			other = s.ReceiverID
		}
		entry := models.CallLogEntry{
			CallSessionID:   s.CallSessionID,
			CallType:        s.CallType,
			Status:          s.Status,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: s.DurationSeconds,
			Direction:       direction,
		}
		if profile, ok := profiles[other]; ok {
			p := profile
			entry.OtherUser = &p
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// scheduleExpiry arms the unanswered-offer timer. The conditional finalize in
// the store means a racing answer or hang-up simply wins.
func (e *Engine) scheduleExpiry(sessionID, callerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.pending[sessionID]; ok {
		old.Stop()
	}
	e.pending[sessionID] = time.AfterFunc(e.offerTTL, func() {
		e.expire(sessionID, callerID)
	})
}

func (e *Engine) cancelExpiry(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timer, ok := e.pending[sessionID]; ok {
		timer.Stop()
		delete(e.pending, sessionID)
	}
}

func (e *Engine) expire(sessionID, callerID string) {
	e.mu.Lock()
	delete(e.pending, sessionID)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	claimed, err := e.calls.FinalizeIfPending(ctx, sessionID, e.now().UTC(), "no_answer")
	if err != nil {
		e.log.Error().Err(err).Str("call_session_id", sessionID).Msg("expire pending offer failed")
		return
	}
	if !claimed {
		return
	}
	observability.IncCall(string(models.CallMissed))
	e.fanout.BroadcastToUser(callerID, models.EvEndCall, models.EndCallNotice{
		CallSessionID: sessionID,
		Message:       "no answer",
	})
}

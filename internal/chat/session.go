// Package chat runs one chat exchange at a time against the active backend
// and publishes every state change.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"promptdeck/internal/client"
	"promptdeck/internal/logging"
	"promptdeck/internal/models"
	"promptdeck/internal/stream"
)

var ErrNoStream = errors.New("no response stream available")

// Requester is the slice of client.Client the session needs.
type Requester interface {
	SendRequest(ctx context.Context, endpoint string, opts client.RequestOptions, retries int) (*http.Response, error)
}

// ProfileSource yields the backend to talk to at send time.
type ProfileSource interface {
	Active(ctx context.Context) models.Profile
}

// Session is the sole writer of chat state. A new Send cancels and
// supersedes any send still in flight.
type Session struct {
	requester Requester
	profiles  ProfileSource
	logger    *slog.Logger

	mu        sync.Mutex
	state     models.ChatState
	gen       uint64
	cancel    context.CancelFunc
	sessionID string
}

func NewSession(requester Requester, profiles ProfileSource, logger *slog.Logger) *Session {
	return &Session{
		requester: requester,
		profiles:  profiles,
		logger:    logging.OrDefault(logger),
		state:     stream.Initial(),
	}
}

// State returns a copy of the current state.
func (s *Session) State() models.ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SessionID is the backend conversation id learned from the last reply, if any.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Reset cancels any in-flight send and returns to the initial idle state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = stream.Initial()
	s.sessionID = ""
}

// Send starts a new exchange. The returned channel receives a snapshot
// after every state change, starting with the fresh processing state, and
// is closed after the terminal snapshot. A superseded send's channel is
// closed without a terminal snapshot.
func (s *Session) Send(ctx context.Context, message string) <-chan models.ChatState {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.state = stream.Fresh()
	sessionID := s.sessionID
	first := s.state.Clone()
	s.mu.Unlock()

	updates := make(chan models.ChatState, 16)
	updates <- first

	go func() {
		defer close(updates)
		defer cancel()
		r := &run{session: s, gen: gen, updates: updates, ctx: ctx}
		r.exchange(message, sessionID)
	}()

	return updates
}

// run is one Send's view of the session. Its writes are dropped once a
// newer Send or Reset bumps the generation.
type run struct {
	session *Session
	gen     uint64
	updates chan<- models.ChatState
	ctx     context.Context
}

// apply runs fn against the session state and publishes the result. It
// reports the new status, or ok=false once the run is superseded.
func (r *run) apply(fn func(models.ChatState) models.ChatState) (status models.ChatStatus, ok bool) {
	s := r.session
	s.mu.Lock()
	if s.gen != r.gen {
		s.mu.Unlock()
		return "", false
	}
	s.state = fn(s.state)
	snap := s.state.Clone()
	s.mu.Unlock()

	// Outcomes are delivered even after cancellation. Consumers read until close.
	if snap.Status.Terminal() {
		r.updates <- snap
		return snap.Status, true
	}
	select {
	case r.updates <- snap:
	case <-r.ctx.Done():
	}
	return snap.Status, true
}

func (r *run) fail(err error) {
	if r.ctx.Err() != nil && r.superseded() {
		return
	}
	r.session.logger.Error("Chat request failed", "error", err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.apply(func(st models.ChatState) models.ChatState { return stream.Fail(st, msg) })
}

func (r *run) superseded() bool {
	r.session.mu.Lock()
	defer r.session.mu.Unlock()
	return r.session.gen != r.gen
}

func (r *run) exchange(message, sessionID string) {
	s := r.session
	profile := s.profiles.Active(r.ctx)

	body, err := json.Marshal(models.ChatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		r.fail(err)
		return
	}

	resp, err := s.requester.SendRequest(r.ctx, profile.ChatEndpoint, client.RequestOptions{
		Method: http.MethodPost,
		Body:   body,
	}, 0)
	if err != nil {
		r.fail(err)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.fail(client.ReadErrorBody(resp))
		return
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		r.fail(ErrNoStream)
		return
	}
	defer resp.Body.Close()

	if isJSON(resp.Header.Get(client.HeaderContentType)) {
		r.foldReply(resp)
		return
	}

	for ev, err := range stream.Decode(r.ctx, resp.Body, s.logger) {
		if err != nil {
			r.fail(fmt.Errorf("read stream: %w", err))
			return
		}
		status, ok := r.apply(func(st models.ChatState) models.ChatState { return stream.Reduce(st, ev) })
		if !ok || status == models.StatusError {
			return
		}
	}
	r.apply(stream.Complete)
}

// foldReply handles backends that answer with one JSON document instead of a stream.
func (r *run) foldReply(resp *http.Response) {
	var reply models.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		r.fail(fmt.Errorf("decode reply: %w", err))
		return
	}
	if reply.Error != "" || reply.Status == "error" {
		r.apply(func(st models.ChatState) models.ChatState { return stream.Fail(st, reply.Error) })
		return
	}
	if reply.SessionID != "" {
		r.session.mu.Lock()
		if r.session.gen == r.gen {
			r.session.sessionID = reply.SessionID
		}
		r.session.mu.Unlock()
	}
	msg := reply.Response
	r.apply(func(st models.ChatState) models.ChatState {
		return stream.Complete(stream.Reduce(st, models.StreamEvent{
			Type: models.EventResponse,
			Data: models.StreamEventData{Message: &msg},
		}))
	})
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

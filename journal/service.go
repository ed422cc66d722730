// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/storage"
)

// Service stores journal messages and triggers their enrichment.
type Service struct {
	messages  storage.MessageRepository
	scores    storage.MediaScoreRepository
	vectors   storage.VectorStore
	publisher events.Publisher
	logger    *slog.Logger
}

// MediaEntry is a MEDIA message with its opinion score. Score is nil when
// the message was never scored.
type MediaEntry struct {
	Message *core.Message
	Score   *core.MediaScore
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a journal service publishing to publisher.
func NewService(
	messages storage.MessageRepository,
	scores storage.MediaScoreRepository,
	vectors storage.VectorStore,
	publisher events.Publisher,
	opts ...Option,
) (*Service, error) {
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if scores == nil {
		return nil, ErrMediaScoreRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if publisher == nil {
		return nil, ErrPublisherRequired
	}

	s := &Service{
		messages:  messages,
		scores:    scores,
		vectors:   vectors,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "journal")
	return s, nil
}

// Submit stores a new unclassified message and publishes message/created
// for it. If publishing fails the stored message is still returned, along
// with an error wrapping ErrPublishFailed; a backfill run picks it up later.
func (s *Service) Submit(ctx context.Context, userID, content string) (*core.Message, error) {
	msg, err := s.messages.AddMessage(ctx, &core.Message{
		UserID:    userID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	evt, err := events.NewMessageCreated(msg.ID, msg.Content, msg.UserID)
	if err != nil {
		return msg, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("message stored but event not published", "messageID", msg.ID, "err", err)
		return msg, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	s.logger.Debug("message submitted", "messageID", msg.ID, "userID", msg.UserID, "eventID", evt.ID)
	return msg, nil
}

// List returns a user's messages in category, newest first. An unset
// category lists every category. A limit <= 0 means no limit.
func (s *Service) List(ctx context.Context, userID string, category core.Category, limit int) ([]*core.Message, error) {
	if category != core.CategoryUnset && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}
	return s.messages.ListMessages(ctx, userID, category, limit)
}

// SetCompleted marks a task message done or not done.
func (s *Service) SetCompleted(ctx context.Context, messageID string, completed bool) error {
	if messageID == "" {
		return core.ErrEmptyMessageID
	}
	return s.messages.SetCompleted(ctx, messageID, completed)
}

// ListMedia returns a user's MEDIA messages, newest first, each with its
// opinion score when one exists. A limit <= 0 means no limit.
func (s *Service) ListMedia(ctx context.Context, userID string, limit int) ([]*MediaEntry, error) {
	msgs, err := s.messages.ListMessages(ctx, userID, core.CategoryMedia, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*MediaEntry, 0, len(msgs))
	for _, msg := range msgs {
		score, err := s.scores.GetMediaScore(ctx, msg.ID)
		if errors.Is(err, storage.ErrNotFound) {
			score = nil
		} else if err != nil {
			return nil, err
		}
		entries = append(entries, &MediaEntry{Message: msg, Score: score})
	}
	return entries, nil
}

// Delete removes a user's message together with its media score and its
// vector namespace. Messages owned by another user are reported as not
// found. The message row goes last, so a failed delete can be repeated.
func (s *Service) Delete(ctx context.Context, userID, messageID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	if messageID == "" {
		return core.ErrEmptyMessageID
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return fmt.Errorf("%w: message %s", storage.ErrNotFound, messageID)
	}

	if err := s.vectors.DeleteNamespace(ctx, core.NamespaceFor(userID, messageID)); err != nil {
		return fmt.Errorf("delete vectors of %s: %w", messageID, err)
	}
	if err := s.scores.DeleteMediaScore(ctx, messageID); err != nil {
		return fmt.Errorf("delete media score of %s: %w", messageID, err)
	}
	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.logger.Debug("message deleted", "messageID", messageID, "userID", userID)
	return nil
}

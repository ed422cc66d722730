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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/secondbrain/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client   llms.Model
	settings ai.ModelSettings
	logger   *slog.Logger
}

var _ ai.ChatModel = (*ChatModel)(nil)

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(settings ai.ModelSettings, component string) (*ChatModel, error) {
	if settings.Host == "" {
		return nil, errors.New("chat model: host is required")
	}
	if settings.Model == "" {
		return nil, errors.New("chat model: model is required")
	}

	client, err := openai.New(
		openai.WithBaseURL(settings.Host),
		openai.WithToken(tokenOrNone(settings.APIKey)),
		openai.WithModel(settings.Model),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client:   client,
		settings: settings,
		logger:   slog.Default().With("component", component, "model", settings.Model),
	}, nil
}

// NewChatModel creates a chat model for a single OpenAI-compatible endpoint.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(settings ai.ModelSettings) (ai.ChatModel, error) {
	return newChatModel(settings, "openai-chat")
}

// Complete sends the system prompt and the user text as a two-message
// conversation and returns the first choice's content.
func (m *ChatModel) Complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(system),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(user),
			},
		},
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(m.settings.Temperature),
		llms.WithMaxTokens(m.settings.MaxTokens),
	}
	if m.settings.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	response, err := m.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		if isEmptyResponse(err) {
			m.logger.Warn("no choices returned from model")
			return "", fmt.Errorf("%w: %w", ai.ErrEmptyResponse, err)
		}
		m.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Warn("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}

	text := response.Choices[0].Content
	if strings.TrimSpace(text) == "" {
		m.logger.Warn("model returned blank content",
			"stopReason", response.Choices[0].StopReason)
		return "", fmt.Errorf("%w: blank content", ai.ErrEmptyResponse)
	}

	m.logger.Debug("received completion", "length", len(text))
	return text, nil
}

// tokenOrNone returns "none" for local OpenAI-compatible services that
// don't require authentication; langchaingo refuses an empty token.
func tokenOrNone(key string) string {
	if key == "" {
		return "none"
	}
	return key
}

// clientEmptyResponse is the message langchaingo's internal client returns
// when the completion has no choices. The sentinel lives in an internal
// package, so it is matched by text.
const clientEmptyResponse = "empty response"

func isEmptyResponse(err error) bool {
	if errors.Is(err, openai.ErrEmptyResponse) {
		return true
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e.Error() == clientEmptyResponse {
			return true
		}
	}
	return false
}

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


package mock

import "github.com/poiesic/secondbrain/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates a mock embedder and two mock chat models.
type MockProvider struct {
	embedder   *MockEmbedder
	classifier *MockChatModel
	scorer     *MockChatModel
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockClassifier()/GetMockScorer() to access concrete
// types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		classifier: NewMockChatModel(),
		scorer:     NewMockChatModel(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, classifier, scorer *MockChatModel) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		classifier: classifier,
		scorer:     scorer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Classifier returns the mock classification model.
func (p *MockProvider) Classifier() ai.ChatModel {
	return p.classifier
}

// Scorer returns the mock opinion scoring model.
func (p *MockProvider) Scorer() ai.ChatModel {
	return p.scorer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockClassifier returns the underlying mock classifier for test assertions.
func (p *MockProvider) GetMockClassifier() *MockChatModel {
	return p.classifier
}

// GetMockScorer returns the underlying mock scorer for test assertions.
func (p *MockProvider) GetMockScorer() *MockChatModel {
	return p.scorer
}

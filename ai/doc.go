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


// Package ai provides abstractions for AI services used by secondbrain.
//
// This package defines interfaces for the model calls made while enriching
// journal messages: text embeddings for semantic indexing and single-turn chat
// completions for classification and media opinion scoring. Business logic
// depends on these abstractions rather than on a concrete provider.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - ChatModel: Sends a system prompt and one user turn, returns the reply text
//   - AIProvider: Aggregates an embedder, a classifier model and a scorer model
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder,
// openai.NewChatModel) return INTERFACE types to enforce abstraction.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockChatModel)
// return CONCRETE types so tests can inject behavior and inspect calls.
//
// # Configuration
//
// Config carries one host and model per service so the classifier and the
// opinion scorer can run on different providers. Temperature and MaxTokens
// apply to both chat models; only the classifier requests JSON mode.
package ai

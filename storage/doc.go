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


// Package storage provides the storage abstraction layer for secondbrain.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two relational backends exist (storage/badger for an
// embedded single-process store, storage/postgres for a shared database) and
// one vector backend (storage/badger).
//
// # Constructor Return Type Pattern
//
// Public constructors return concrete repository types from the backend
// packages, and consumers accept the interfaces defined here:
//
//	messages, err := badger.NewMessageRepository(backend)
//	enricher, err := enrichment.NewEnricher(messages, scores, vectors, provider)
//
// # Architecture
//
//   - MessageRepository: journal messages and their classification
//   - MediaScoreRepository: one opinion score per MEDIA message, upserted
//   - VectorStore: namespaced embeddings with metadata and dot-product search
//
// Records kept in key/value backends are encoded with BSON
// (MarshalMessage, MarshalMediaScore, MarshalVectorRecord).
//
// # Write Semantics
//
// UpdateClassification and UpsertMediaScore are unconditional single writes;
// callers never read a record to decide whether to write it. Re-running
// enrichment for a message therefore converges on the latest result.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage

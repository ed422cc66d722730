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


package badger

// Stores bundles the repositories that share one backend.
type Stores struct {
	Backend  *Backend
	Messages *MessageRepository
	Scores   *MediaScoreRepository
	Vectors  *VectorStore
}

// NewStores creates all repositories on top of an open backend.
func NewStores(backend *Backend) *Stores {
	return &Stores{
		Backend:  backend,
		Messages: NewMessageRepository(backend),
		Scores:   NewMediaScoreRepository(backend),
		Vectors:  NewVectorStore(backend),
	}
}

// Close closes the repositories and then the backend.
func (s *Stores) Close() error {
	s.Vectors.Close()
	s.Scores.Close()
	s.Messages.Close()
	return s.Backend.Close()
}

// NewMemoryStores creates in-memory repositories for testing.
// Caller must Close the returned Stores when done.
func NewMemoryStores() (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return NewStores(backend), nil
}

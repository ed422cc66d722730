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


package backfill

import (
	"context"

	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

const (
	// DefaultBatchSize is the default number of messages to fetch in each batch
	DefaultBatchSize = 100
)

// UnclassifiedIterator walks unclassified messages in ID order.
type UnclassifiedIterator struct {
	repo      storage.MessageRepository
	batchSize int
}

// NewUnclassifiedIterator creates a new iterator.
// batchSize: number of messages to fetch in each batch (must be > 0)
func NewUnclassifiedIterator(repo storage.MessageRepository, batchSize int) *UnclassifiedIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &UnclassifiedIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of unclassified messages.
// The cursor is the last ID seen, so fn may classify the messages it is
// given without disturbing iteration. Messages that stay unclassified are
// not revisited. Iteration stops on the first error from fn.
func (it *UnclassifiedIterator) ForEach(ctx context.Context, fn func([]*core.Message) error) error {
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.ListUnclassified(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		afterID = batch[len(batch)-1].ID
		if len(batch) < it.batchSize {
			return nil
		}
	}
}

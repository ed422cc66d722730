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


package storage

import (
	"fmt"
	"time"

	"github.com/poiesic/secondbrain/core"
	"go.mongodb.org/mongo-driver/bson"
)

// Timestamps are stored as Unix microseconds so records round-trip without
// losing the precision BSON datetimes would drop.

type messageDoc struct {
	ID        string  `bson:"id"`
	UserID    string  `bson:"user_id"`
	Content   string  `bson:"content"`
	Category  string  `bson:"category,omitempty"`
	Mood      string  `bson:"mood,omitempty"`
	Summary   *string `bson:"summary,omitempty"`
	Completed bool    `bson:"completed"`
	CreatedAt int64   `bson:"created_at"`
	UpdatedAt int64   `bson:"updated_at"`
}

type mediaScoreDoc struct {
	MessageID   string  `bson:"message_id"`
	Boldness    string  `bson:"boldness"`
	Explanation *string `bson:"explanation,omitempty"`
	Confidence  *int    `bson:"confidence,omitempty"`
	ScoredAt    int64   `bson:"scored_at"`
}

type vectorDoc struct {
	ID        string            `bson:"id"`
	Namespace string            `bson:"namespace"`
	Vector    []float32         `bson:"vector"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(msg *core.Message) ([]byte, error) {
	data, err := bson.Marshal(messageDoc{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Content:   msg.Content,
		Category:  string(msg.Category),
		Mood:      string(msg.Mood),
		Summary:   msg.Summary,
		Completed: msg.Completed,
		CreatedAt: toMicros(msg.CreatedAt),
		UpdatedAt: toMicros(msg.UpdatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %w", ErrSerializationFailed, msg.ID, err)
	}
	return data, nil
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	var doc messageDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: message: %w", ErrSerializationFailed, err)
	}
	return &core.Message{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Content:   doc.Content,
		Category:  core.Category(doc.Category),
		Mood:      core.Mood(doc.Mood),
		Summary:   doc.Summary,
		Completed: doc.Completed,
		CreatedAt: fromMicros(doc.CreatedAt),
		UpdatedAt: fromMicros(doc.UpdatedAt),
	}, nil
}

// MarshalMediaScore serializes a MediaScore to bytes.
func MarshalMediaScore(score *core.MediaScore) ([]byte, error) {
	data, err := bson.Marshal(mediaScoreDoc{
		MessageID:   score.MessageID,
		Boldness:    string(score.Boldness),
		Explanation: score.Explanation,
		Confidence:  score.Confidence,
		ScoredAt:    toMicros(score.ScoredAt),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: media score %s: %w", ErrSerializationFailed, score.MessageID, err)
	}
	return data, nil
}

// UnmarshalMediaScore deserializes a MediaScore from bytes.
func UnmarshalMediaScore(data []byte) (*core.MediaScore, error) {
	var doc mediaScoreDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: media score: %w", ErrSerializationFailed, err)
	}
	return &core.MediaScore{
		MessageID:   doc.MessageID,
		Boldness:    core.Boldness(doc.Boldness),
		Explanation: doc.Explanation,
		Confidence:  doc.Confidence,
		ScoredAt:    fromMicros(doc.ScoredAt),
	}, nil
}

// MarshalVectorRecord serializes a VectorRecord to bytes.
func MarshalVectorRecord(record *core.VectorRecord) ([]byte, error) {
	data, err := bson.Marshal(vectorDoc{
		ID:        record.ID,
		Namespace: record.Namespace,
		Vector:    record.Vector,
		Metadata:  record.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector %s/%s: %w", ErrSerializationFailed, record.Namespace, record.ID, err)
	}
	return data, nil
}

// UnmarshalVectorRecord deserializes a VectorRecord from bytes.
func UnmarshalVectorRecord(data []byte) (*core.VectorRecord, error) {
	var doc vectorDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	return &core.VectorRecord{
		ID:        doc.ID,
		Namespace: doc.Namespace,
		Vector:    doc.Vector,
		Metadata:  doc.Metadata,
	}, nil
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

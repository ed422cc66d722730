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


package core

import (
	"fmt"
	"strings"
)

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - Content must not be blank
//   - UserID must not be empty
//   - Category and Mood must be unset or one of their enumerations
//
// NOT validated (assigned by storage):
//   - ID
//   - CreatedAt / UpdatedAt
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if strings.TrimSpace(msg.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if msg.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyUserID)
	}

	if msg.Category != CategoryUnset && !msg.Category.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidMessage, ErrInvalidCategory, msg.Category)
	}

	if msg.Mood != MoodUnset && !msg.Mood.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidMessage, ErrInvalidMood, msg.Mood)
	}

	return nil
}

// ValidateClassification checks that a classification is fully normalized.
func ValidateClassification(c Classification) error {
	if !c.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, c.Category)
	}
	if !c.Mood.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMood, c.Mood)
	}
	return nil
}

// ValidateMediaScore validates a MediaScore according to domain rules.
func ValidateMediaScore(score *MediaScore) error {
	if score == nil {
		return fmt.Errorf("%w: score is nil", ErrInvalidMediaScore)
	}

	if score.MessageID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMediaScore, ErrEmptyMessageID)
	}

	if !score.Boldness.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidMediaScore, ErrInvalidBoldness, score.Boldness)
	}

	if score.Confidence != nil && (*score.Confidence < 0 || *score.Confidence > 100) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidMediaScore, ErrInvalidConfidence, *score.Confidence)
	}

	return nil
}

// ValidateVectorRecord validates a VectorRecord before it is stored.
func ValidateVectorRecord(record *VectorRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidVectorRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidVectorRecord)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorRecord, ErrEmptyVector)
	}

	return nil
}

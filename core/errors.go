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

import "errors"

// Domain validation errors
var (
	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidMediaScore indicates a MediaScore failed validation.
	ErrInvalidMediaScore = errors.New("invalid media score")

	// ErrInvalidVectorRecord indicates a VectorRecord failed validation.
	ErrInvalidVectorRecord = errors.New("invalid vector record")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyUserID indicates the UserID field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyMessageID indicates a message identifier is missing.
	ErrEmptyMessageID = errors.New("message id cannot be empty")

	// ErrInvalidCategory indicates a value outside the category set.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidMood indicates a value outside the mood set.
	ErrInvalidMood = errors.New("invalid mood")

	// ErrInvalidBoldness indicates a value outside the boldness levels.
	ErrInvalidBoldness = errors.New("invalid boldness")

	// ErrInvalidConfidence indicates a confidence outside 0..100.
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 100")

	// ErrEmptyVector indicates a vector record without values.
	ErrEmptyVector = errors.New("vector cannot be empty")
)

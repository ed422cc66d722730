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


// Package search provides semantic search over indexed study notes.
//
// Study messages are embedded into one vector-store namespace per message,
// all sharing the owning user's prefix. The Searcher embeds a query and
// ranks a user's records by dot-product similarity, adding a small boost
// when the note contains every query word verbatim (after stop-word
// filtering).
package search

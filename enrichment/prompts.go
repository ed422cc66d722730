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


package enrichment

import (
	"fmt"
	"strings"

	"github.com/poiesic/secondbrain/core"
)

// categoryHints are shown next to categories whose meaning is not obvious
// from the name alone.
var categoryHints = map[core.Category]string{
	core.CategoryStudy: "any study notes",
	core.CategoryTask:  "to-do stuff",
	core.CategoryLog:   "like a journal",
	core.CategoryMedia: "anything media-related, even rants",
}

const classificationPromptTemplate = `You're an assistant that classifies messages.
Return a JSON object with keys:
- category: one of %s
- mood: one of %s
- summary: a vivid one-sentence summary of the message.
If unsure, default to:
category: %s
mood: %s
summary: ""`

const opinionPromptTemplate = `You are a media analyst.
Return ONLY valid JSON with keys:
  boldness (with respect to public opinion) - %s
  explanation - one short sentence
  confidence (of the response) - integer 0-100

Example:
{"boldness":"%s","explanation":"The opinion sharply disagrees with mainstream consensus.","confidence":88}`

// ClassificationPrompt is the system instruction sent with every message
// to the classifier model.
var ClassificationPrompt = buildClassificationPrompt()

// OpinionPrompt is the system instruction sent to the scorer model for
// MEDIA messages.
var OpinionPrompt = buildOpinionPrompt()

func buildClassificationPrompt() string {
	categories := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		if hint, ok := categoryHints[c]; ok {
			categories[i] = fmt.Sprintf("%s (%s)", c, hint)
		} else {
			categories[i] = string(c)
		}
	}

	moods := make([]string, len(core.Moods))
	for i, m := range core.Moods {
		moods[i] = string(m)
	}

	return fmt.Sprintf(classificationPromptTemplate,
		strings.Join(categories, ", "),
		strings.Join(moods, ", "),
		core.CategoryOther,
		core.MoodNeutral)
}

func buildOpinionPrompt() string {
	levels := make([]string, len(core.Boldnesses))
	for i, b := range core.Boldnesses {
		levels[i] = fmt.Sprintf("%q", string(b))
	}
	choices := strings.Join(levels[:len(levels)-1], ", ") + ", or " + levels[len(levels)-1]
	return fmt.Sprintf(opinionPromptTemplate, choices, core.BoldnessHot)
}

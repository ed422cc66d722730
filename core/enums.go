package core

import (
	"fmt"
	"strings"
)

// Category is the closed set of message categories.
type Category string

const (
	// CategoryUnset marks a message that has not been classified yet.
	CategoryUnset Category = ""
	CategoryStudy Category = "STUDY"
	CategoryIdea  Category = "IDEA"
	CategoryRant  Category = "RANT"
	CategoryTask  Category = "TASK"
	CategoryLog   Category = "LOG"
	CategoryQuote Category = "QUOTE"
	CategoryMedia Category = "MEDIA"
	CategoryOther Category = "OTHER"
)

// Categories lists every assignable category in prompt order.
var Categories = []Category{
	CategoryStudy,
	CategoryIdea,
	CategoryRant,
	CategoryTask,
	CategoryLog,
	CategoryQuote,
	CategoryMedia,
	CategoryOther,
}

// Valid reports whether c is one of the assignable categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStudy, CategoryIdea, CategoryRant, CategoryTask,
		CategoryLog, CategoryQuote, CategoryMedia, CategoryOther:
		return true
	}
	return false
}

// ParseCategory trims and upper-cases s and checks it against the category set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return CategoryUnset, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Mood is the closed set of message moods.
type Mood string

const (
	// MoodUnset marks a message that has not been classified yet.
	MoodUnset      Mood = ""
	MoodNeutral    Mood = "NEUTRAL"
	MoodHappy      Mood = "HAPPY"
	MoodSad        Mood = "SAD"
	MoodAngry      Mood = "ANGRY"
	MoodTired      Mood = "TIRED"
	MoodAnxious    Mood = "ANXIOUS"
	MoodExcited    Mood = "EXCITED"
	MoodBored      Mood = "BORED"
	MoodReflective Mood = "REFLECTIVE"
)

// Moods lists every assignable mood in prompt order.
var Moods = []Mood{
	MoodNeutral,
	MoodHappy,
	MoodSad,
	MoodAngry,
	MoodTired,
	MoodAnxious,
	MoodExcited,
	MoodBored,
	MoodReflective,
}

// Valid reports whether m is one of the assignable moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodNeutral, MoodHappy, MoodSad, MoodAngry, MoodTired,
		MoodAnxious, MoodExcited, MoodBored, MoodReflective:
		return true
	}
	return false
}

// ParseMood trims and upper-cases s and checks it against the mood set.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return MoodUnset, fmt.Errorf("%w: %q", ErrInvalidMood, s)
	}
	return m, nil
}

// Boldness grades how contrarian an opinion about a piece of media is.
type Boldness string

const (
	BoldnessCold    Boldness = "Cold Take"
	BoldnessMild    Boldness = "Mild Take"
	BoldnessHot     Boldness = "Hot Take"
	BoldnessNuclear Boldness = "Nuclear Take"
)

// Boldnesses lists every boldness level from mildest to boldest.
var Boldnesses = []Boldness{
	BoldnessCold,
	BoldnessMild,
	BoldnessHot,
	BoldnessNuclear,
}

// Valid reports whether b is one of the four boldness levels.
func (b Boldness) Valid() bool {
	switch b {
	case BoldnessCold, BoldnessMild, BoldnessHot, BoldnessNuclear:
		return true
	}
	return false
}

// ParseBoldness matches s against the boldness levels ignoring case and
// surrounding whitespace.
func ParseBoldness(s string) (Boldness, error) {
	trimmed := strings.TrimSpace(s)
	for _, b := range Boldnesses {
		if strings.EqualFold(trimmed, string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBoldness, s)
}

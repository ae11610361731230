// Package dialogue locates quoted utterances in chapter text and attributes
// them to characters from a roster.
//
// The package is pure: nothing here performs I/O, logs, or keeps mutable
// state, so Extractor and Resolver values may be shared between goroutines.
package dialogue

import (
	"errors"
	"fmt"
)

// Voice parameter defaults consumed by the voice collaborator.
const (
	DefaultVoiceModel  = "alloy"
	DefaultVoiceSpeed  = 1.0
	DefaultVoicePitch  = 1.0
	DefaultVoiceVolume = 1.0
)

// ErrEmptyName indicates a roster entry without a usable name.
var ErrEmptyName = errors.New("character name cannot be empty")

// VoiceParams holds the synthesis settings of a character.
type VoiceParams struct {
	Model  string  `json:"model"  toml:"model"`
	Speed  float64 `json:"speed"  toml:"speed"`
	Pitch  float64 `json:"pitch"  toml:"pitch"`
	Volume float64 `json:"volume" toml:"volume"`
}

// WithDefaults returns a copy of v where every zero field is replaced by its
// default value.
func (v VoiceParams) WithDefaults() VoiceParams {
	if v.Model == "" {
		v.Model = DefaultVoiceModel
	}

	if v.Speed == 0 {
		v.Speed = DefaultVoiceSpeed
	}

	if v.Pitch == 0 {
		v.Pitch = DefaultVoicePitch
	}

	if v.Volume == 0 {
		v.Volume = DefaultVoiceVolume
	}

	return v
}

// Character is a named speaker that dialogue can be attributed to.
type Character struct {
	ID                   string      `json:"id"                              toml:"id"`
	Name                 string      `json:"name"                            toml:"name"`
	Description          string      `json:"description,omitempty"           toml:"description"`
	PersonalityTraits    string      `json:"personality_traits,omitempty"    toml:"personality_traits"`
	VoiceCharacteristics string      `json:"voice_characteristics,omitempty" toml:"voice_characteristics"`
	Voice                VoiceParams `json:"voice"                           toml:"voice"`
}

// Chapter is the read-only text a pass runs over.
type Chapter struct {
	NovelID string `json:"novel_id"`
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Line is one attributed utterance. StartPosition and EndPosition form a
// half-open rune range covering the whole match, label included.
type Line struct {
	Content       string    `json:"content"`
	Speaker       Character `json:"speaker"`
	StartPosition int       `json:"start_position"`
	EndPosition   int       `json:"end_position"`
	VoiceFilePath string    `json:"voice_file_path,omitempty"`
	Generated     bool      `json:"generated"`
}

// FrequencyEntry is the number of times a character's name occurs in a text.
type FrequencyEntry struct {
	Character Character `json:"character"`
	Count     int       `json:"count"`
}

// FrequencyTable lists one entry per roster member, in roster order.
type FrequencyTable []FrequencyEntry

// ValidateRoster reports the first roster entry whose name is empty.
func ValidateRoster(roster []Character) error {
	for i, character := range roster {
		if character.Name == "" {
			return fmt.Errorf("%w: roster entry %d (id %q)", ErrEmptyName, i, character.ID)
		}
	}

	return nil
}

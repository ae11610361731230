package worker

import (
	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/events"
)

// ChapterSubmittedEvent asks the worker to extract the dialogue of a chapter
// already uploaded to the object store under ChapterKey.
type ChapterSubmittedEvent struct {
	Header         events.EventHeader   `json:"header"`
	NovelID        string               `json:"novel_id"`
	ChapterKey     string               `json:"chapter_key"`
	ChapterNumber  int                  `json:"chapter_number"`
	Characters     []dialogue.Character `json:"characters"`
	GenerateVoices bool                 `json:"generate_voices"`
}

// FrequencyCount is one row of the frequency table sent back to the caller.
type FrequencyCount struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
}

// DialoguesExtractedEvent is the reply to a ChapterSubmittedEvent. Error is
// set, and every other field but Header left empty, when the job failed.
type DialoguesExtractedEvent struct {
	Header          events.EventHeader `json:"header"`
	DialoguesKey    string             `json:"dialogues_key,omitempty"`
	ChapterNumber   int                `json:"chapter_number"`
	DialogueCount   int                `json:"dialogue_count"`
	VoicesGenerated int                `json:"voices_generated"`
	Frequency       []FrequencyCount   `json:"frequency,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// DialogueDocument is the JSON object stored under DialoguesKey.
type DialogueDocument struct {
	NovelID       string                  `json:"novel_id"`
	ChapterNumber int                     `json:"chapter_number"`
	Dialogues     []dialogue.Line         `json:"dialogues"`
	Frequency     dialogue.FrequencyTable `json:"frequency"`
}

func frequencyCounts(table dialogue.FrequencyTable) []FrequencyCount {
	counts := make([]FrequencyCount, 0, len(table))
	for _, entry := range table {
		counts = append(counts, FrequencyCount{
			CharacterID: entry.Character.ID,
			Name:        entry.Character.Name,
			Count:       entry.Count,
		})
	}

	return counts
}

// VoiceRegenerationRequestedEvent asks the worker to synthesize one line of
// a stored dialogue document again.
type VoiceRegenerationRequestedEvent struct {
	Header       events.EventHeader `json:"header"`
	DialoguesKey string             `json:"dialogues_key"`
	LineIndex    int                `json:"line_index"`
}

// VoiceRegeneratedEvent is the reply to a VoiceRegenerationRequestedEvent.
type VoiceRegeneratedEvent struct {
	Header        events.EventHeader `json:"header"`
	DialoguesKey  string             `json:"dialogues_key"`
	LineIndex     int                `json:"line_index"`
	VoiceFilePath string             `json:"voice_file_path,omitempty"`
	Error         string             `json:"error,omitempty"`
}

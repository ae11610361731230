package voice

import (
	"strings"

	"github.com/book-expert/dialogue-service/internal/dialogue"
)

// BuildPrompt describes the speaker so the synthesizer can match the line to
// the character. Empty character fields are left out.
func BuildPrompt(character dialogue.Character, text string) string {
	var prompt strings.Builder

	writeField(&prompt, "角色", character.Name)
	writeField(&prompt, "角色描述", character.Description)
	writeField(&prompt, "性格特征", character.PersonalityTraits)
	writeField(&prompt, "语音特征", character.VoiceCharacteristics)
	writeField(&prompt, "对话内容", text)
	prompt.WriteString("请根据角色特征生成符合人物特色的语音。")

	return prompt.String()
}

func writeField(prompt *strings.Builder, label, value string) {
	if value == "" {
		return
	}

	prompt.WriteString(label)
	prompt.WriteString("：")
	prompt.WriteString(value)
	prompt.WriteString("\n")
}

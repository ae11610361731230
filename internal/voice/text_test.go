package voice_test

import (
	"testing"

	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/book-expert/dialogue-service/internal/voice"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "collapses whitespace", input: " 你好\n\t　世界 ", expected: "你好 世界"},
		{name: "unifies ellipsis", input: "等等……好吧...", expected: "等等…好吧…"},
		{name: "unifies dashes", input: "不——不行–走", expected: "不—不行—走"},
		{name: "squeezes repeated marks", input: "什么？？！！", expected: "什么？！"},
		{name: "keeps distinct marks", input: "真的？！", expected: "真的？！"},
		{name: "empty", input: "   ", expected: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, voice.NormalizeText(testCase.input))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "小明", voice.SanitizeName("小明"))
	assert.Equal(t, "Dr_Who", voice.SanitizeName("Dr. Who"))
	assert.Equal(t, "a_b", voice.SanitizeName("a/../b"))
	assert.Equal(t, "_", voice.SanitizeName("？！"))
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := voice.BuildPrompt(dialogue.Character{
		Name:                 "小明",
		Description:          "学生",
		VoiceCharacteristics: "低沉",
	}, "你好")

	assert.Equal(t,
		"角色：小明\n角色描述：学生\n语音特征：低沉\n对话内容：你好\n请根据角色特征生成符合人物特色的语音。",
		prompt)
}

func TestFileKey(t *testing.T) {
	t.Parallel()

	first := voice.FileKey("小 明", 4)
	second := voice.FileKey("小 明", 4)

	assert.Regexp(t, `^小_明_4_[0-9a-f-]{36}\.wav$`, first)
	assert.NotEqual(t, first, second)
}

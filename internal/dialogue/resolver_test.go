package dialogue_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/book-expert/dialogue-service/internal/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster(names ...string) []dialogue.Character {
	characters := make([]dialogue.Character, 0, len(names))
	for i, name := range names {
		characters = append(characters, dialogue.Character{
			ID:   strings.Repeat("c", i+1),
			Name: name,
		})
	}

	return characters
}

func extract(text string, characters []dialogue.Character) []dialogue.Line {
	return dialogue.Extract(dialogue.Chapter{NovelID: "novel", Number: 1, Content: text}, characters)
}

func TestExtract_LabeledAttribution(t *testing.T) {
	t.Parallel()

	lines := extract("小明：“你好”", roster("小明"))

	require.Len(t, lines, 1)
	assert.Equal(t, "你好", lines[0].Content)
	assert.Equal(t, "小明", lines[0].Speaker.Name)
	assert.Equal(t, 0, lines[0].StartPosition)
	assert.Equal(t, 7, lines[0].EndPosition)
	assert.False(t, lines[0].Generated)
	assert.Empty(t, lines[0].VoiceFilePath)
}

func TestExtract_ContextFallback(t *testing.T) {
	t.Parallel()

	lines := extract("小明走了过来。“你好”", roster("小红", "小明"))

	require.Len(t, lines, 1)
	assert.Equal(t, "你好", lines[0].Content)
	assert.Equal(t, "小明", lines[0].Speaker.Name)
	assert.Equal(t, 7, lines[0].StartPosition)
	assert.Equal(t, 11, lines[0].EndPosition)
}

func TestExtract_NoResolvableCharacter(t *testing.T) {
	t.Parallel()

	assert.Empty(t, extract("“你好”", roster("张三")))
}

func TestExtract_UnresolvedLabelDoesNotFallBackToContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, extract("路人：“你好”，小明说。", roster("小明")))
}

func TestExtract_AllQuoteStyles(t *testing.T) {
	t.Parallel()

	for _, quote := range []string{`"x"`, "“x”", "（x）", "「x」", "『x』"} {
		lines := extract("小明笑了。"+quote, roster("小明"))

		require.Len(t, lines, 1, quote)
		assert.Equal(t, "x", lines[0].Content, quote)
	}
}

func TestExtract_LabelContainment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		roster  []dialogue.Character
		speaker string
	}{
		{name: "exact name", text: "小明：「走」", roster: roster("小明"), speaker: "小明"},
		{name: "label contains name", text: "年轻的小明：「走」", roster: roster("小明"), speaker: "小明"},
		{name: "name contains label", text: "明：「走」", roster: roster("王小明"), speaker: "王小明"},
		{name: "roster order breaks ties", text: "小明：「走」", roster: roster("小", "小明"), speaker: "小"},
		{name: "empty names never match", text: "小明：「走」", roster: roster("", "小明"), speaker: "小明"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			lines := extract(testCase.text, testCase.roster)

			require.Len(t, lines, 1)
			assert.Equal(t, testCase.speaker, lines[0].Speaker.Name)
		})
	}
}

func TestExtract_BlankLabelGoesToFirstNamedCharacter(t *testing.T) {
	t.Parallel()

	lines := extract("小红：「早」 ：「你好」", roster("", "老王", "小红"))

	require.Len(t, lines, 2)
	assert.Equal(t, "早", lines[0].Content)
	assert.Equal(t, "小红", lines[0].Speaker.Name)
	assert.Equal(t, "你好", lines[1].Content)
	assert.Equal(t, "老王", lines[1].Speaker.Name)
	assert.Equal(t, 6, lines[1].StartPosition)
	assert.Equal(t, 12, lines[1].EndPosition)
}

func TestExtract_LabelSwallowingEarlierQuote(t *testing.T) {
	t.Parallel()

	lines := extract("「嗨」小明：\"你好\"", roster("小明"))

	require.Len(t, lines, 1)
	assert.Equal(t, "你好", lines[0].Content)
	assert.Equal(t, "小明", lines[0].Speaker.Name)
	assert.Equal(t, 0, lines[0].StartPosition)
	assert.Equal(t, 10, lines[0].EndPosition)
}

func TestResolve_CallerBuiltLabelCountsAsLabeled(t *testing.T) {
	t.Parallel()

	text := "小红站着。“走吧”"
	matches := []dialogue.RawMatch{{Quoted: "走吧", Label: "小明", Start: 5, End: 9, QuoteStart: 5}}

	lines := dialogue.Resolve(text, matches, roster("小红", "小明"))

	require.Len(t, lines, 1)
	assert.Equal(t, "小明", lines[0].Speaker.Name)
}

func TestExtract_OverlappingStylesBothAttributed(t *testing.T) {
	t.Parallel()

	lines := extract("“x：y，a：「b」”", roster("a"))

	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[0].Content)
	assert.Equal(t, "x：y，a：「b」", lines[1].Content)
}

func TestResolver_ContextWindow(t *testing.T) {
	t.Parallel()

	text := "小明在远处看着窗外的雨。“你好”"
	matches := dialogue.ExtractRaw(text)
	require.Len(t, matches, 1)

	assert.Len(t, dialogue.NewResolver().Resolve(text, matches, roster("小明")), 1)
	assert.Empty(t, dialogue.NewResolver(dialogue.WithContextWindow(3)).Resolve(text, matches, roster("小明")))
	assert.Len(t, dialogue.NewResolver(dialogue.WithContextWindow(-1)).Resolve(text, matches, roster("小明")), 1)
}

func TestResolver_ContextWindowLooksAfterTheQuote(t *testing.T) {
	t.Parallel()

	lines := extract("“你好”，小明说。", roster("小明"))

	require.Len(t, lines, 1)
	assert.Equal(t, "小明", lines[0].Speaker.Name)
}

func TestResolver_ContextWindowIsBounded(t *testing.T) {
	t.Parallel()

	text := "小明" + strings.Repeat("。", dialogue.DefaultContextWindow) + "“你好”"

	assert.Empty(t, extract(text, roster("小明")))
	assert.Len(t, extract(text[len("小明"):]+"小明", roster("小明")), 1)
}

func TestExtract_DegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, extract("", roster("小明")))
	assert.Empty(t, extract("小明：“你好”", nil))
	assert.Empty(t, extract("没有对话的段落。", roster("小明")))
	assert.Empty(t, dialogue.Resolve("", nil, nil))
}

func TestExtract_Invariants(t *testing.T) {
	t.Parallel()

	characters := roster("小明", "小红", "Tom")
	texts := []string{
		"小明：“你好”",
		"“早”，小明说。小红：“好”",
		"Tom: \"hi\" and then \"bye\"",
		"“x：y，a：「b」”小红",
		"小明：「」（小红）『』\"\"",
		"\xff\xfe小明：“坏字节”",
		"小红说：“第一段\n\n第二段”",
	}

	for _, text := range texts {
		raw := dialogue.ExtractRaw(text)
		lines := dialogue.Resolve(text, raw, characters)
		runeCount := utf8.RuneCountInString(text)

		assert.LessOrEqual(t, len(lines), len(raw), text)

		starts := make(map[int]struct{}, len(lines))
		for _, line := range lines {
			assert.GreaterOrEqual(t, line.StartPosition, 0, text)
			assert.Less(t, line.StartPosition, line.EndPosition, text)
			assert.LessOrEqual(t, line.EndPosition, runeCount, text)

			_, seen := starts[line.StartPosition]
			assert.False(t, seen, "duplicate start %d in %q", line.StartPosition, text)
			starts[line.StartPosition] = struct{}{}
		}

		assert.Equal(t, lines, dialogue.Resolve(text, dialogue.ExtractRaw(text), characters), text)
	}
}

func TestCountFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		roster []dialogue.Character
		want   []int
	}{
		{name: "non-overlapping advance", text: "小明小明", roster: roster("小明"), want: []int{2}},
		{name: "self overlap counted once", text: "aaa", roster: roster("aa"), want: []int{1}},
		{name: "different names counted independently", text: "小明明", roster: roster("小明", "明"), want: []int{1, 2}},
		{name: "zero occurrences listed", text: "小明", roster: roster("小红", "小明"), want: []int{0, 1}},
		{name: "case sensitive", text: "Tom tom TOM", roster: roster("Tom"), want: []int{1}},
		{name: "empty name counts zero", text: "abc", roster: roster(""), want: []int{0}},
		{name: "empty text", text: "", roster: roster("小明"), want: []int{0}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			table := dialogue.CountFrequency(testCase.text, testCase.roster)

			require.Len(t, table, len(testCase.roster))

			for i, entry := range table {
				assert.Equal(t, testCase.roster[i], entry.Character)
				assert.Equal(t, testCase.want[i], entry.Count)
			}
		})
	}
}

func TestCountFrequency_RosterOrder(t *testing.T) {
	t.Parallel()

	table := dialogue.CountFrequency("小明和小红，小明", roster("小红", "小明"))

	require.Len(t, table, 2)
	assert.Equal(t, "小红", table[0].Character.Name)
	assert.Equal(t, 1, table[0].Count)
	assert.Equal(t, "小明", table[1].Character.Name)
	assert.Equal(t, 2, table[1].Count)

	assert.Empty(t, dialogue.CountFrequency("小明", nil))
}

func TestPipeline_UsesConfiguredStages(t *testing.T) {
	t.Parallel()

	chapter := dialogue.Chapter{Number: 3, Content: "小明看着。“走吧\n快点”"}
	characters := roster("小明")

	assert.Len(t, dialogue.NewPipeline(nil, nil).Extract(chapter, characters), 1)

	singleLine := dialogue.NewPipeline(dialogue.NewExtractor(dialogue.WithSingleLine()), nil)
	assert.Empty(t, singleLine.Extract(chapter, characters))

	frequency := singleLine.Frequency(chapter, characters)
	require.Len(t, frequency, 1)
	assert.Equal(t, 1, frequency[0].Count)
}

func TestValidateRoster(t *testing.T) {
	t.Parallel()

	require.NoError(t, dialogue.ValidateRoster(roster("小明", "小红")))
	require.NoError(t, dialogue.ValidateRoster(nil))

	err := dialogue.ValidateRoster(roster("小明", ""))
	require.ErrorIs(t, err, dialogue.ErrEmptyName)
}

func TestVoiceParams_WithDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, dialogue.VoiceParams{
		Model: dialogue.DefaultVoiceModel, Speed: 1, Pitch: 1, Volume: 1,
	}, dialogue.VoiceParams{}.WithDefaults())

	custom := dialogue.VoiceParams{Model: "nova", Speed: 1.5, Pitch: 0.8, Volume: 0.5}
	assert.Equal(t, custom, custom.WithDefaults())
}

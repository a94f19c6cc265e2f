package parser

import (
	"regexp"
	"strings"
	"unicode"

	"manual-rag/internal/models"
)

var (
	headingRes = compilePatterns(models.HeadingPatterns)
	wsRe       = regexp.MustCompile(`\s+`)
)

func compilePatterns(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// Chunker splits per-page manual text into overlapping chunks with
// chapter/page provenance.
type Chunker struct {
	ChunkSize    int
	OverlapWords int
}

func NewChunker(chunkSize, overlapWords int) Chunker {
	if chunkSize <= 0 {
		chunkSize = models.DefaultChunkSize
	}
	if overlapWords <= 0 {
		overlapWords = models.DefaultOverlapWords
	}
	return Chunker{ChunkSize: chunkSize, OverlapWords: overlapWords}
}

// chapterState is the chapter value carried across pages of one extraction
// pass. A heading detected on a page applies to every chunk of that page,
// including text before the heading line, and carries over until the next
// heading.
type chapterState struct {
	chapter string
}

// Extract runs one extraction pass over the pages of a manual, folding the
// chapter state page by page.
func (c Chunker) Extract(source string, pages []string) []models.Chunk {
	state := chapterState{chapter: models.DefaultChapter}
	var chunks []models.Chunk
	for i, pageText := range pages {
		var pageChunks []models.Chunk
		state, pageChunks = c.extractPage(state, source, pageText, i+1)
		chunks = append(chunks, pageChunks...)
	}
	return chunks
}

func (c Chunker) extractPage(state chapterState, source, text string, page int) (chapterState, []models.Chunk) {
	if len(strings.TrimSpace(text)) < models.MinPageChars {
		return state, nil
	}

	if chapter, ok := detectChapter(text); ok {
		state.chapter = chapter
	}

	var chunks []models.Chunk
	for _, part := range c.splitText(text) {
		if len(part) <= models.MinChunkChars {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: part,
			Metadata: models.Metadata{
				Source:  source,
				Chapter: state.chapter,
				Page:    page,
			},
		})
	}
	return state, chunks
}

// detectChapter scans the first few usable lines of a page for a heading.
// Patterns are tried in priority order across the whole window, so an
// explicit "Chapter N:" heading beats an ALL-CAPS line earlier on the page.
func detectChapter(text string) (string, bool) {
	var window []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < models.HeadingMinLen || len(line) > models.HeadingMaxLen {
			continue
		}
		window = append(window, line)
		if len(window) == models.HeadingScanLines {
			break
		}
	}

	for _, re := range headingRes {
		for _, line := range window {
			if m := re.FindStringSubmatch(line); m != nil {
				return normalizeChapter(m[1]), true
			}
		}
	}
	return "", false
}

// normalizeChapter collapses whitespace and folds fully-uppercase names to
// title case, so "CHAPTER 1: INTRO" and "Chapter 1: Intro" index under the
// same chapter value.
func normalizeChapter(name string) string {
	name = strings.TrimSpace(wsRe.ReplaceAllString(name, " "))
	if name != "" && name == strings.ToUpper(name) {
		name = titleCase(name)
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// splitText normalizes whitespace, splits into sentence-like units and
// greedily packs them into chunks of at most ChunkSize characters, seeding
// each new chunk with the trailing OverlapWords words of the previous one.
func (c Chunker) splitText(text string) []string {
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	var chunks []string
	var current string
	for _, sentence := range splitSentences(text) {
		if len(current)+len(sentence) > c.ChunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			words := strings.Fields(current)
			overlap := ""
			if len(words) > c.OverlapWords {
				overlap = strings.Join(words[len(words)-c.OverlapWords:], " ")
			}
			current = overlap + " " + sentence
		} else {
			current += " " + sentence
		}
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// splitSentences cuts after [.!?] followed by a space. A heuristic, not a
// sentence tokenizer: abbreviations may over-split. Input is already
// whitespace-normalized, so a single space is the only separator.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		ch := text[i]
		if (ch == '.' || ch == '!' || ch == '?') && text[i+1] == ' ' {
			out = append(out, text[start:i+1])
			start = i + 2
			i++
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

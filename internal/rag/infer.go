package rag

import (
	"regexp"
	"strings"

	"manual-rag/internal/models"
)

var mentionRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(models.ChapterMentionPatterns))
	for i, p := range models.ChapterMentionPatterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}()

// InferChapter decides whether a query targets a specific chapter. Known
// chapter names mentioned verbatim (case-insensitive) win first; when several
// match, the longest name is the most specific mention and is chosen, equal
// lengths falling back to list order. Failing that, a chapter phrase is
// extracted from the query and compared case-insensitively against the known
// names. Absence of a filter is a normal outcome.
func InferChapter(query string, knownChapters []string) (string, bool) {
	lower := strings.ToLower(query)
	best := ""
	for _, chapter := range knownChapters {
		if chapter == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(chapter)) && len(chapter) > len(best) {
			best = chapter
		}
	}
	if best != "" {
		return best, true
	}

	if candidate, ok := chapterMention(query); ok {
		for _, chapter := range knownChapters {
			if strings.EqualFold(chapter, candidate) {
				return chapter, true
			}
		}
	}
	return "", false
}

// chapterMention extracts a chapter-like phrase from the query, e.g. the
// "Power Supply" of "in the Power Supply chapter".
func chapterMention(query string) (string, bool) {
	for _, re := range mentionRes {
		if m := re.FindStringSubmatch(query); m != nil {
			if candidate := strings.TrimSpace(m[1]); candidate != "" {
				return candidate, true
			}
		}
	}
	return "", false
}

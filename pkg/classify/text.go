package classify

import (
	"regexp"
	"strings"
)

const maxTitleRunes = 40

var listMarkerRegex = regexp.MustCompile(`^\s*(?:[-*•‧・]\s*|\d{1,2}\s*[.)、．]\s*|[(（]\d{1,2}[)）]\s*|[一二三四五六七八九十]{1,3}\s*、\s*)`)

// Title derives a title from the first sentence of the first non-empty line.
func Title(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(listMarkerRegex.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if i := strings.IndexAny(line, "。！？!?；;"); i > 0 {
			line = line[:i]
		}
		line = strings.TrimRight(line, "，,、：:。.；; 　")
		runes := []rune(line)
		if len(runes) > maxTitleRunes {
			return string(runes[:maxTitleRunes]) + "…"
		}
		return line
	}
	return ""
}

// Split breaks a bulleted or numbered list into items. Lines before the first
// item are returned as context; unmarked lines after an item continue it.
// Content with fewer than two items is returned whole as a single item.
func Split(content string) (context string, items []string) {
	var preamble []string
	var current *strings.Builder
	var builders []*strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if listMarkerRegex.MatchString(line) {
			current = &strings.Builder{}
			current.WriteString(strings.TrimSpace(listMarkerRegex.ReplaceAllString(line, "")))
			builders = append(builders, current)
			continue
		}
		if current == nil {
			preamble = append(preamble, strings.TrimSpace(line))
			continue
		}
		current.WriteString("\n")
		current.WriteString(strings.TrimSpace(line))
	}

	if len(builders) < 2 {
		return "", []string{strings.TrimSpace(content)}
	}
	for _, b := range builders {
		items = append(items, b.String())
	}
	return strings.Join(preamble, "\n"), items
}

package index

import (
	"regexp"
	"strconv"
	"strings"
)

// docMentions is what a markdown document contributes to the graph: a title,
// optional tags, and three categories of mention found in the body.
type docMentions struct {
	Title  string
	Tags   []string
	Files  []string
	Tasks  []int64
	Idents []string
}

var (
	headingRe     = regexp.MustCompile(`(?m)^#\s+(.+)\s*$`)
	tagsLineRe    = regexp.MustCompile(`(?im)^(?:tags|keywords):\s*(.+)$`)
	quotedPathRe  = regexp.MustCompile("`([\\w.\\-/]+\\.[A-Za-z0-9]+)`")
	barePathRe    = regexp.MustCompile(`(?m)(?:^|\s)([\w.\-]+(?:/[\w.\-]+)+\.[A-Za-z0-9]+)`)
	taskMentionRe = regexp.MustCompile(`(?i)(?:task\s+)?#(\d+)`)
	identRe       = regexp.MustCompile("`([A-Za-z_][A-Za-z0-9_]*)`")
)

// extractMentions scans a markdown body. The title is the first level-1
// heading, falling back to the given name. withIdents additionally collects
// code-quoted bare identifiers (wiki documents only — reference docs quote
// too many incidental words for that to be useful).
func extractMentions(body, fallback string, withIdents bool) *docMentions {
	m := &docMentions{Title: fallback}

	if h := headingRe.FindStringSubmatch(body); h != nil {
		m.Title = strings.TrimSpace(h[1])
	}

	if t := tagsLineRe.FindStringSubmatch(body); t != nil {
		for _, tag := range strings.Split(t[1], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				m.Tags = append(m.Tags, tag)
			}
		}
	}

	seenFiles := make(map[string]bool)
	addFile := func(path string) {
		path = strings.TrimPrefix(path, "./")
		if path != "" && !seenFiles[path] {
			seenFiles[path] = true
			m.Files = append(m.Files, path)
		}
	}
	for _, match := range quotedPathRe.FindAllStringSubmatch(body, -1) {
		addFile(match[1])
	}
	for _, match := range barePathRe.FindAllStringSubmatch(body, -1) {
		addFile(match[1])
	}

	seenTasks := make(map[int64]bool)
	for _, match := range taskMentionRe.FindAllStringSubmatch(body, -1) {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || seenTasks[id] {
			continue
		}
		seenTasks[id] = true
		m.Tasks = append(m.Tasks, id)
	}

	if withIdents {
		seenIdents := make(map[string]bool)
		for _, match := range identRe.FindAllStringSubmatch(body, -1) {
			ident := match[1]
			if !seenIdents[ident] {
				seenIdents[ident] = true
				m.Idents = append(m.Idents, ident)
			}
		}
	}
	return m
}

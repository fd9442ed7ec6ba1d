// Package document loads readable documents and splits them into trackable sections.
package document

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// Meta is the optional YAML front matter of a document.
type Meta struct {
	Title       string            `yaml:"title,omitempty"`
	Category    string            `yaml:"category,omitempty"`
	Threshold   *float64          `yaml:"threshold,omitempty"`
	ReadTimeMs  *int              `yaml:"read_time_ms,omitempty"`
	EventPrefix string            `yaml:"event_prefix,omitempty"`
	Events      map[string]string `yaml:"events,omitempty"`
}

// Section is a heading and the paragraphs below it.
type Section struct {
	Heading string
	Slug    string
	Level   int
	Body    []string
}

// Document is a parsed document.
type Document struct {
	Meta     Meta
	Sections []Section
}

// EventName returns the analytics event name for a section.
func (d Document) EventName(s Section) string {
	if name, ok := d.Meta.Events[s.Slug]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return d.Meta.EventPrefix + s.Slug
}

// Title returns the front matter title or the first heading.
func (d Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	if len(d.Sections) > 0 {
		return d.Sections[0].Heading
	}
	return ""
}

// Load reads and parses the document at path.
func Load(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only document.
			_ = cerr
		}
	}()
	doc, err := Parse(file)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse splits r into sections at "#" and "##" headings. Text before the first
// heading becomes an untitled leading section. Blank lines separate paragraphs.
func Parse(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	body, err := splitFrontMatter(data, &doc.Meta)
	if err != nil {
		return Document{}, err
	}

	current := -1
	var paragraph []string
	seen := map[string]int{}
	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		if current < 0 {
			doc.Sections = append(doc.Sections, Section{Slug: uniqueSlug("intro", seen)})
			current = len(doc.Sections) - 1
		}
		doc.Sections[current].Body = append(doc.Sections[current].Body, strings.Join(paragraph, " "))
		paragraph = nil
	}

	for _, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSpace(raw)
		if level, heading, ok := parseHeading(line); ok {
			flush()
			slug := uniqueSlug(Slugify(heading), seen)
			doc.Sections = append(doc.Sections, Section{Heading: heading, Slug: slug, Level: level})
			current = len(doc.Sections) - 1
			continue
		}
		if line == "" {
			flush()
			continue
		}
		paragraph = append(paragraph, line)
	}
	flush()

	if len(doc.Sections) == 0 {
		return Document{}, fmt.Errorf("document is empty")
	}
	return doc, nil
}

func splitFrontMatter(data []byte, meta *Meta) ([]byte, error) {
	lines := strings.SplitAfter(string(data), "\n")
	if strings.TrimSpace(lines[0]) != frontMatterDelim {
		return data, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != frontMatterDelim {
			continue
		}
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "")), meta); err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
		if meta.Threshold != nil && !(*meta.Threshold >= 0 && *meta.Threshold <= 1) {
			return nil, fmt.Errorf("front matter threshold must be between 0 and 1")
		}
		if meta.ReadTimeMs != nil && *meta.ReadTimeMs < 0 {
			return nil, fmt.Errorf("front matter read_time_ms must be >= 0")
		}
		return []byte(strings.Join(lines[i+1:], "")), nil
	}
	return nil, fmt.Errorf("unterminated front matter")
}

func parseHeading(line string) (int, string, bool) {
	for level, prefix := range []string{"# ", "## "} {
		if strings.HasPrefix(line, prefix) {
			heading := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			if heading == "" {
				return 0, "", false
			}
			return level + 1, heading, true
		}
	}
	return 0, "", false
}

// Slugify lowercases s and joins its alphanumeric runs with underscores.
func Slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}

func uniqueSlug(slug string, seen map[string]int) string {
	seen[slug]++
	if seen[slug] == 1 {
		return slug
	}
	return fmt.Sprintf("%s_%d", slug, seen[slug])
}

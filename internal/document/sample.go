package document

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

var sampleWords = strings.Fields(`
the reader scrolls through a long page while small sections drift in and out of view
each block reports when it was seen and again when it stayed long enough to be read
analytics teams use these signals to tell skimming apart from attention without asking
a timer starts when the text crosses the threshold and stops if the reader moves away
terminal windows are narrow so paragraphs wrap and headings mark where one part ends
`)

var sampleHeadings = []string{
	"Getting started", "Why attention matters", "Scrolling habits", "Measuring reads",
	"Thresholds", "Timers and exits", "Privacy notes", "Further reading",
}

// Generator produces randomized sample documents.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a deterministic Generator.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Sample builds a document with the given number of sections and words per paragraph.
func (g *Generator) Sample(sections, words int) Document {
	if sections <= 0 {
		sections = 1
	}
	if words <= 0 {
		words = 1
	}
	doc := Document{Meta: Meta{Title: "Sample reading", Category: "sample"}}
	seen := map[string]int{}
	for i := 0; i < sections; i++ {
		heading := sampleHeadings[i%len(sampleHeadings)]
		if i >= len(sampleHeadings) {
			heading = fmt.Sprintf("%s (%d)", heading, i/len(sampleHeadings)+1)
		}
		paragraphs := 2 + g.rnd.Intn(3)
		body := make([]string, 0, paragraphs)
		for p := 0; p < paragraphs; p++ {
			body = append(body, g.paragraph(words))
		}
		doc.Sections = append(doc.Sections, Section{
			Heading: heading,
			Slug:    uniqueSlug(Slugify(heading), seen),
			Level:   1,
			Body:    body,
		})
	}
	return doc
}

func (g *Generator) paragraph(count int) string {
	out := make([]string, 0, count)
	sentenceStart := true
	for i := 0; i < count; i++ {
		word := sampleWords[g.rnd.Intn(len(sampleWords))]
		if sentenceStart {
			word = capitalize(word)
			sentenceStart = false
		}
		if i == count-1 || g.rnd.Float64() < 0.1 {
			word += "."
			sentenceStart = true
		}
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

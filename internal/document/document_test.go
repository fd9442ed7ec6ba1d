package document

import (
	"strings"
	"testing"
)

const sampleDoc = `---
title: Field notes
category: blog
threshold: 0.6
read_time_ms: 3000
event_prefix: notes_
events:
  closing_thoughts: notes_outro
---
Opening line before any heading.

# Getting Started
First paragraph
continues here.

Second paragraph.

## Getting started!
Duplicate heading.

# Closing thoughts
Bye.
`

func TestParseSectionsAndMeta(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta.Category != "blog" || doc.Meta.Threshold == nil || *doc.Meta.Threshold != 0.6 {
		t.Fatalf("unexpected meta: %+v", doc.Meta)
	}
	if doc.Meta.ReadTimeMs == nil || *doc.Meta.ReadTimeMs != 3000 {
		t.Fatalf("unexpected read time: %+v", doc.Meta.ReadTimeMs)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	wantSlugs := []string{"intro", "getting_started", "getting_started_2", "closing_thoughts"}
	for i, slug := range wantSlugs {
		if doc.Sections[i].Slug != slug {
			t.Fatalf("section %d: expected slug %q, got %q", i, slug, doc.Sections[i].Slug)
		}
	}
	if got := doc.Sections[1].Body; len(got) != 2 || got[0] != "First paragraph continues here." {
		t.Fatalf("unexpected body: %q", got)
	}
	if doc.Sections[2].Level != 2 {
		t.Fatalf("expected level 2 heading, got %d", doc.Sections[2].Level)
	}
	if got := doc.EventName(doc.Sections[1]); got != "notes_getting_started" {
		t.Fatalf("unexpected event name: %q", got)
	}
	if got := doc.EventName(doc.Sections[3]); got != "notes_outro" {
		t.Fatalf("expected override, got %q", got)
	}
	if doc.Title() != "Field notes" {
		t.Fatalf("unexpected title: %q", doc.Title())
	}
}

func TestParseWithoutFrontMatter(t *testing.T) {
	doc, err := Parse(strings.NewReader("# Hello\nworld\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title() != "Hello" || doc.EventName(doc.Sections[0]) != "hello" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":            "\n\n",
		"unterminated":     "---\ntitle: x\n# Heading\n",
		"bad yaml":         "---\ntitle: [\n---\n# H\n",
		"threshold range":  "---\nthreshold: 2\n---\n# H\ntext\n",
		"threshold nan":    "---\nthreshold: .nan\n---\n# H\ntext\n",
		"negative read ms": "---\nread_time_ms: -1\n---\n# H\ntext\n",
	}
	for name, input := range tests {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":  "hello_world",
		"  Über  Größe ": "über_größe",
		"2024 -- recap":  "2024_recap",
		"!!!":            "section",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	a := NewSeededGenerator(7).Sample(10, 12)
	b := NewSeededGenerator(7).Sample(10, 12)
	if len(a.Sections) != 10 {
		t.Fatalf("expected 10 sections, got %d", len(a.Sections))
	}
	seen := map[string]bool{}
	for i := range a.Sections {
		if a.Sections[i].Slug != b.Sections[i].Slug || strings.Join(a.Sections[i].Body, "|") != strings.Join(b.Sections[i].Body, "|") {
			t.Fatalf("section %d differs between equal seeds", i)
		}
		if seen[a.Sections[i].Slug] {
			t.Fatalf("duplicate slug %q", a.Sections[i].Slug)
		}
		seen[a.Sections[i].Slug] = true
	}
	for _, p := range a.Sections[0].Body {
		if !strings.HasSuffix(p, ".") {
			t.Fatalf("paragraph should end a sentence: %q", p)
		}
	}
}

func TestParseLongParagraphLine(t *testing.T) {
	paragraph := strings.TrimSpace(strings.Repeat("word ", 40*1024))
	doc, err := Parse(strings.NewReader("# Long\n" + paragraph + "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Sections) != 1 || len(doc.Sections[0].Body) != 1 || doc.Sections[0].Body[0] != paragraph {
		t.Fatalf("expected the long paragraph intact")
	}
}

package entity

import (
	"strings"
	"testing"
)

func TestChapterBeginGeneration(t *testing.T) {
	cases := []struct {
		name    string
		status  ChapterStatus
		wantErr bool
	}{
		{"from pending", ChapterStatusPending, false},
		{"from failed", ChapterStatusFailed, false},
		{"from generating", ChapterStatusGenerating, true},
		{"from complete", ChapterStatusComplete, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := NewChapter("book-1", 3)
			ch.Status = tc.status

			err := ch.BeginGeneration()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error from status %q", tc.status)
				}
				if ch.Status != tc.status {
					t.Fatalf("status changed on rejected transition: %q", ch.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ch.Status != ChapterStatusGenerating {
				t.Fatalf("status = %q, want generating", ch.Status)
			}
		})
	}
}

func TestChapterCompleteGeneration(t *testing.T) {
	ch := NewChapter("book-1", 1)
	if err := ch.BeginGeneration(); err != nil {
		t.Fatal(err)
	}

	content := "# Chapter One\n\nSome generated prose with several words."
	if err := ch.CompleteGeneration(content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Status != ChapterStatusComplete {
		t.Fatalf("status = %q, want complete", ch.Status)
	}
	if ch.ContentMarkdown != content {
		t.Fatal("content not stored")
	}
	if want := len(strings.Fields(content)); ch.WordCount != want {
		t.Fatalf("word count = %d, want %d", ch.WordCount, want)
	}
}

func TestChapterCompleteGenerationRejectsEmpty(t *testing.T) {
	ch := NewChapter("book-1", 1)
	if err := ch.BeginGeneration(); err != nil {
		t.Fatal(err)
	}
	if err := ch.CompleteGeneration("   \n\t"); err == nil {
		t.Fatal("expected error for empty content")
	}
	if ch.Status != ChapterStatusGenerating {
		t.Fatalf("status = %q, want generating", ch.Status)
	}
}

func TestChapterCompleteGenerationRequiresGenerating(t *testing.T) {
	ch := NewChapter("book-1", 1)
	if err := ch.CompleteGeneration("content"); err == nil {
		t.Fatal("expected error from pending status")
	}
}

func TestChapterFailGeneration(t *testing.T) {
	ch := NewChapter("book-1", 2)
	ch.SetContent("previous draft")
	prev := ch.ContentMarkdown

	if err := ch.FailGeneration(); err == nil {
		t.Fatal("expected error from pending status")
	}

	if err := ch.BeginGeneration(); err != nil {
		t.Fatal(err)
	}
	if err := ch.FailGeneration(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Status != ChapterStatusFailed {
		t.Fatalf("status = %q, want failed", ch.Status)
	}
	if ch.ContentMarkdown != prev {
		t.Fatal("content changed on failure")
	}

	// failed 章节可再次派发
	if !ch.Dispatchable() {
		t.Fatal("failed chapter should be dispatchable")
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   \n\t  ", 0},
		{"one", 1},
		{"# Heading\n\nTwo words here.", 5},
		{"tab\tseparated words", 3},
	}
	for _, tc := range cases {
		if got := CountWords(tc.in); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

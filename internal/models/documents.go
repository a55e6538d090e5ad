package models

import (
	"time"
)

type HighlightKind string

const (
	HighlightPlagiarism  HighlightKind = "plagiarism"
	HighlightAIGenerated HighlightKind = "ai-generated"
)

// Document is both the unit of analysis and a corpus entry. At most one
// Document exists per DedupKey.
type Document struct {
	ID              string        `json:"id" db:"id"`
	DedupKey        string        `json:"-" db:"dedup_key"`
	OwnerID         string        `json:"owner_id" db:"owner_id"`
	Filename        string        `json:"filename" db:"filename"`
	Format          string        `json:"format" db:"format"`
	Fingerprint     string        `json:"content_fingerprint" db:"fingerprint"`
	NormalizedText  string        `json:"normalized_text,omitempty" db:"content"`
	PlagiarismScore float64       `json:"plagiarism_score" db:"plagiarism_score"`
	AIScore         float64       `json:"ai_score" db:"ai_score"`
	OriginalScore   float64       `json:"original_score" db:"original_score"`
	Stats           Stats         `json:"stats"`
	Highlights      []Highlight   `json:"highlights"`
	Sources         []SourceMatch `json:"sources_detected"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

type Stats struct {
	WordCount      int `json:"word_count" db:"word_count"`
	CharacterCount int `json:"character_count" db:"character_count"`
	PageCount      int `json:"page_count" db:"page_count"`
	ReadingTime    int `json:"reading_time" db:"reading_time"`
}

// Highlight offsets are rune offsets into Document.NormalizedText.
type Highlight struct {
	Kind        HighlightKind `json:"kind"`
	StartOffset int           `json:"start_offset"`
	EndOffset   int           `json:"end_offset"`
	Confidence  float64       `json:"confidence"`
	SourceID    string        `json:"source_id,omitempty"`
}

// Position is the rendering box derived from a Highlight. Never stored.
type Position struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

type PositionedHighlight struct {
	Highlight
	Position Position `json:"position"`
}

// SourceMatch summarizes how much of a candidate overlaps one corpus document.
type SourceMatch struct {
	DocumentID      string   `json:"document_id"`
	Filename        string   `json:"filename"`
	MatchPercentage float64  `json:"match_percentage"`
	Snippets        []string `json:"snippets"`
}

// CorpusEntry is one row of the CorpusView.
type CorpusEntry struct {
	ID       string `db:"id"`
	Filename string `db:"filename"`
	Text     string `db:"content"`
}

type TextAnalysis struct {
	OriginalContent    float64 `json:"original_content"`
	PlagiarizedContent float64 `json:"plagiarized_content"`
	AIGeneratedContent float64 `json:"ai_generated_content"`
}

type AIVerdict struct {
	Score       float64 `json:"score"`
	IsGenerated bool    `json:"is_generated"`
}

type AnalyzeRequest struct {
	File        []byte
	Filename    string
	ContentType string
	OwnerID     string
}

type AnalysisResult struct {
	DocumentID      string                `json:"document_id"`
	Filename        string                `json:"filename"`
	Format          string                `json:"format"`
	Fingerprint     string                `json:"content_fingerprint"`
	PlagiarismScore float64               `json:"plagiarism_score"`
	AIScore         float64               `json:"ai_score"`
	OriginalScore   float64               `json:"original_score"`
	AI              AIVerdict             `json:"ai"`
	TextAnalysis    TextAnalysis          `json:"text_analysis"`
	Stats           Stats                 `json:"stats"`
	Highlights      []PositionedHighlight `json:"highlights"`
	Sources         []SourceMatch         `json:"sources_detected"`
	Deduplicated    bool                  `json:"deduplicated"`
	AnalyzedAt      time.Time             `json:"analyzed_at"`
}

// AnalysisCompletedEvent is published after a successful analysis.
type AnalysisCompletedEvent struct {
	DocumentID      string  `json:"document_id"`
	OwnerID         string  `json:"owner_id"`
	Fingerprint     string  `json:"content_fingerprint"`
	PlagiarismScore float64 `json:"plagiarism_score"`
	AIScore         float64 `json:"ai_score"`
	PlagiarismFlag  bool    `json:"plagiarism_flag"`
	TopSourceID     string  `json:"top_source_id,omitempty"`
	Deduplicated    bool    `json:"deduplicated"`
	Timestamp       int64   `json:"timestamp"`
}

// HighlightedDocument is the stored text rendered with inline <mark> tags.
type HighlightedDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	HTML       string `json:"html"`
}

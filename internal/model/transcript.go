package model

import (
	"time"
	"unicode/utf8"
)

type Transcript struct {
	VideoID  string    `json:"video_id"`
	Text     string    `json:"text"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Length is the transcript length in characters.
func (t *Transcript) Length() int {
	if t == nil {
		return 0
	}
	return utf8.RuneCountInString(t.Text)
}

// Preview returns at most n characters of the text, suffixed with "..." when cut.
func (t *Transcript) Preview(n int) string {
	if t == nil {
		return ""
	}
	runes := []rune(t.Text)
	if len(runes) <= n {
		return t.Text
	}
	return string(runes[:n]) + "..."
}

// Package music turns the collaborator's free-text song recommendations
// into structured entries with YouTube search links. Straightforward
// string matching; the raw text remains the stored artifact.
package music

import (
	"net/url"
	"regexp"
	"strings"
)

// Song is one parsed recommendation line.
type Song struct {
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	YouTubeURL string `json:"youtube_url"`
	Display    string `json:"display"`
}

// Recommendations is the parsed form of a music-mode AI response.
type Recommendations struct {
	Reason  string `json:"reason"`
	Songs   []Song `json:"songs"`
	RawText string `json:"raw_text"`
}

// songPattern matches list lines like "- Artist - Title", "• Artist – Title"
// or "1. Artist - Title".
var songPattern = regexp.MustCompile(`^[-•*\d.)\s]+(.+?)\s*[-–]\s*(.+)$`)

// Parse extracts the recommendation reason (first line) and the song list
// from an AI response. Lines that don't look like songs are ignored.
func Parse(aiResponse string) Recommendations {
	lines := strings.Split(strings.TrimSpace(aiResponse), "\n")

	rec := Recommendations{RawText: aiResponse}
	if len(lines) > 0 {
		rec.Reason = strings.TrimSpace(lines[0])
	}

	for _, line := range lines[min(1, len(lines)):] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := songPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		artist := strings.TrimSpace(m[1])
		title := strings.TrimSpace(m[2])
		rec.Songs = append(rec.Songs, Song{
			Artist:     artist,
			Title:      title,
			YouTubeURL: SearchURL(artist + " " + title),
			Display:    artist + " - " + title,
		})
	}

	return rec
}

// SearchURL builds a YouTube search URL for the given query.
func SearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

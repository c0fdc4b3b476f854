package model

// Segment is one time-aligned piece of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the immutable output of the transcription collaborator,
// consumed exactly once by ingestion.
type Transcript struct {
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader"`
	SourceURL string    `json:"source_url"`
	VideoID   string    `json:"video_id"`
	Text      string    `json:"text"`
	WordCount int       `json:"word_count"`
	Segments  []Segment `json:"segments,omitempty"`
}

package subtitle

// represents one recognized utterance as produced by a transcription engine
type Segment struct {
	Start float64 // seconds
	End   float64 // seconds
	Text  string
}

// represents one numbered SRT block after normalization
type Block struct {
	Index     int
	StartCode string
	EndCode   string
	Text      string
}

// represents a parsed subtitle cue from an existing SRT file
type Entry struct {
	Index int
	Start float64 // seconds
	End   float64 // seconds
	Text  string
}

// source of segments in arrival order; Next returns io.EOF once exhausted
type Source interface {
	Next() (Segment, error)
}

// Normalizer rewrites segment text before it is written.
type Normalizer func(text string) (string, error)

// Extension is the file extension used for every generated subtitle file.
const Extension = ".srt"

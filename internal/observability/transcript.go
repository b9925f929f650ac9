package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rahul/outing/internal/llm"
)

// TranscriptFile appends every completion exchange as one JSON line and
// keeps a single .old generation once the file grows past MaxSize.
type TranscriptFile struct {
	Path    string
	MaxSize int64
	log     Logger
	mu      sync.Mutex
}

func NewTranscriptFile(path string, maxSize int64, log Logger) *TranscriptFile {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10MB
	}
	if log == nil {
		log = NewNopLogger()
	}
	return &TranscriptFile{Path: path, MaxSize: maxSize, log: log.Event(EventLLM)}
}

type transcriptLine struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	llm.Exchange
}

// Record implements llm.Transcript.
func (t *TranscriptFile) Record(e llm.Exchange) {
	data, err := json.Marshal(transcriptLine{Type: EventLLM, Timestamp: time.Now(), Exchange: e})
	if err != nil {
		t.log.Warn("failed to marshal transcript line", Fields{"error": err.Error()})
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		t.log.Warn("failed to create transcript directory", Fields{"error": err.Error()})
		return
	}

	info, err := os.Stat(t.Path)
	if err == nil && info.Size() > t.MaxSize {
		t.rotate()
	}

	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.log.Warn("failed to open transcript file", Fields{"error": err.Error()})
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		t.log.Warn("failed to write transcript line", Fields{"error": err.Error()})
	}
}

func (t *TranscriptFile) rotate() {
	oldPath := t.Path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(t.Path, oldPath)
}

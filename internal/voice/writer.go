package voice

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/routecue/waypointd/pkg/core"
)

// JSONWriter writes notifications as newline delimited JSON.
type JSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriter wraps w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// RecordNotification implements Recorder.
func (w *JSONWriter) RecordNotification(n *core.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(n); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}

package builder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// TimingEnv overrides the configured timing output path
const TimingEnv = "FABRIC_INTERCHANGE_TIMING_JSONL"

type timingEvent struct {
	Phase      string  `json:"phase"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status,omitempty"`
	Count      int     `json:"count,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

// timingRecorder writes one JSON line per stage. The first write failure
// stops further output and is reported by Close.
type timingRecorder struct {
	start time.Time
	out   io.WriteCloser
	enc   *json.Encoder
	err   error
}

// newTimingRecorder returns a recorder writing to path, or a disabled one when
// path is empty or cannot be created
func newTimingRecorder(start time.Time, path string) (*timingRecorder, error) {
	if path == "" {
		return &timingRecorder{start: start}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return &timingRecorder{start: start}, err
	}
	return newTimingWriter(start, f), nil
}

func newTimingWriter(start time.Time, out io.WriteCloser) *timingRecorder {
	return &timingRecorder{start: start, out: out, enc: json.NewEncoder(out)}
}

// Close releases the output and returns the first write or close error
func (tr *timingRecorder) Close() error {
	if tr.out == nil {
		return nil
	}
	err := tr.out.Close()
	tr.out = nil
	if tr.err != nil {
		return tr.err
	}
	return err
}

// RecordStage writes one stage event; count is the number of rows the stage produced
func (tr *timingRecorder) RecordStage(phase string, start time.Time, duration time.Duration, status string, count int) {
	if tr.enc == nil || tr.err != nil {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(duration)
	event := timingEvent{
		Phase:      phase,
		Kind:       "stage",
		Status:     status,
		Count:      count,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	if err := tr.enc.Encode(event); err != nil {
		tr.err = fmt.Errorf("timing %s: %w", phase, err)
	}
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

func (b *Builder) resolveTimingPath() string {
	if envPath := os.Getenv(TimingEnv); envPath != "" {
		return envPath
	}
	if b.Config != nil {
		return b.Config.Timing.Path
	}
	return ""
}

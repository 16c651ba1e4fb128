package sim

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
)

// Callback receives the events of a sweep in enumeration order.
type Callback interface {
	OnSweepBegin(scheme addr.Scheme)
	OnSweepEnd(r Result)
	OnFetch(e FetchEvent)
	OnCheck(e CheckEvent)
	OnOutput(e OutputEvent)
	OnPixelEnd(e FetchEvent)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnSweepBegin(scheme addr.Scheme) {}
func (c BaseCallback) OnSweepEnd(r Result) {}
func (c BaseCallback) OnFetch(e FetchEvent) {}
func (c BaseCallback) OnCheck(e CheckEvent) {}
func (c BaseCallback) OnOutput(e OutputEvent) {}
func (c BaseCallback) OnPixelEnd(e FetchEvent) {}

// TextLogger writes the human-readable diagnostic stream.
type TextLogger struct {
	W io.Writer

	scheme string
}

// NewTextLogger creates a TextLogger writing to w.
func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{W: w}
}

func (l *TextLogger) OnSweepBegin(scheme addr.Scheme) {
	l.scheme = scheme.Name()
}

func (l *TextLogger) OnFetch(e FetchEvent) {
	fmt.Fprintf(l.W, "[Fetch_INPUT_ACT]: in_chanblk: %d i_row: %d i_col: %d block address: %x\n",
		e.InBlock, e.Input.Row, e.Input.Col, e.Address)
}

func (l *TextLogger) OnCheck(e CheckEvent) {
	fmt.Fprintf(l.W, "\tOut of bound checking [%s]: %d %d %s\n",
		e.Label, e.Output.Row, e.Output.Col, pyBool(e.OutOfBounds))
}

func (l *TextLogger) OnOutput(e OutputEvent) {
	fmt.Fprintf(l.W, "[Output_ACT]: filter_id: %d in_chan_blk: %d act_row: %d act_col: %d k_row: %d k_col: %d output_chan_blk: %d\n",
		e.Filter, e.InBlock, e.Input.Row, e.Input.Col, e.Tap.Row, e.Tap.Col, e.OutBlock)
	if l.scheme == "strided" {
		fmt.Fprintf(l.W, "\tAddr: %d %s\n", e.Address, e.Output)
		return
	}
	fmt.Fprintf(l.W, "\tAddr: %d\n", e.Address)
}

func (l *TextLogger) OnPixelEnd(e FetchEvent) {
	fmt.Fprint(l.W, "\n\n")
}

func (l *TextLogger) OnSweepEnd(r Result) {
	if r.Scheme == "strided" {
		fmt.Fprintf(l.W, "New out element count:  %d\n", r.Outputs)
		return
	}
	fmt.Fprintf(l.W, "Old out elements count: %d\n", r.Outputs)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Recorder keeps every event in memory.
type Recorder struct {
	Fetches []FetchEvent
	Checks  []CheckEvent
	Outputs []OutputEvent
	Results []Result
}

func (r *Recorder) OnSweepBegin(scheme addr.Scheme) {}
func (r *Recorder) OnFetch(e FetchEvent) { r.Fetches = append(r.Fetches, e) }
func (r *Recorder) OnCheck(e CheckEvent) { r.Checks = append(r.Checks, e) }
func (r *Recorder) OnOutput(e OutputEvent) { r.Outputs = append(r.Outputs, e) }
func (r *Recorder) OnPixelEnd(e FetchEvent) {}
func (r *Recorder) OnSweepEnd(res Result) { r.Results = append(r.Results, res) }

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	*r = Recorder{}
}

// SlogReporter logs sweep boundaries and totals.
type SlogReporter struct {
	BaseCallback
	Logger *slog.Logger
}

// NewSlogReporter creates a reporter; a nil logger means slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

func (r *SlogReporter) OnSweepBegin(scheme addr.Scheme) {
	r.Logger.Debug("sweep started", "scheme", scheme.Name())
}

func (r *SlogReporter) OnSweepEnd(res Result) {
	r.Logger.Info("sweep complete",
		"scheme", res.Scheme,
		"fetches", res.Fetches,
		"checks", res.Checks,
		"outputs", res.Outputs)
}

package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
)

var csvHeader = []string{
	"scheme", "event", "filter", "in_block", "i_row", "i_col",
	"k_row", "k_col", "out_block", "o_row", "o_col", "address",
}

// CSVLogger writes one record per fetch and output event.
type CSVLogger struct {
	BaseCallback

	writer *csv.Writer
	closer io.Closer
	scheme string
	header bool
	err    error
}

// NewCSVLogger creates a CSVLogger writing to w.
func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{writer: csv.NewWriter(w)}
}

// OpenCSVLogger creates a CSVLogger writing to filename. When appending to a
// non-empty file the header is not repeated.
func OpenCSVLogger(filename string, append bool) (*CSVLogger, error) {
	mode := os.O_CREATE | os.O_WRONLY
	if append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(filename, mode, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv trace: %w", err)
	}
	c := NewCSVLogger(file)
	c.closer = file

	if info, err := file.Stat(); err == nil && append && info.Size() > 0 {
		c.header = true
	}
	return c, nil
}

func (c *CSVLogger) OnSweepBegin(scheme addr.Scheme) {
	c.scheme = scheme.Name()
	if !c.header {
		c.write(csvHeader)
		c.header = true
	}
}

func (c *CSVLogger) OnFetch(e FetchEvent) {
	c.write([]string{
		c.scheme, "fetch",
		strconv.Itoa(e.Filter), strconv.Itoa(e.InBlock),
		strconv.Itoa(e.Input.Row), strconv.Itoa(e.Input.Col),
		"", "", "", "", "",
		strconv.Itoa(e.Address),
	})
}

func (c *CSVLogger) OnOutput(e OutputEvent) {
	c.write([]string{
		c.scheme, "output",
		strconv.Itoa(e.Filter), strconv.Itoa(e.InBlock),
		strconv.Itoa(e.Input.Row), strconv.Itoa(e.Input.Col),
		strconv.Itoa(e.Tap.Row), strconv.Itoa(e.Tap.Col),
		strconv.Itoa(e.OutBlock),
		strconv.Itoa(e.Output.Row), strconv.Itoa(e.Output.Col),
		strconv.Itoa(e.Address),
	})
}

func (c *CSVLogger) OnSweepEnd(r Result) {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil && c.err == nil {
		c.err = err
	}
}

func (c *CSVLogger) write(record []string) {
	if c.err != nil {
		return
	}
	if err := c.writer.Write(record); err != nil {
		c.err = err
	}
}

// Err returns the first write error, if any.
func (c *CSVLogger) Err() error {
	return c.err
}

// Close flushes pending records and closes the underlying file, if the
// logger owns one.
func (c *CSVLogger) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil && c.err == nil {
		c.err = err
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil && c.err == nil {
			c.err = err
		}
		c.closer = nil
	}
	return c.err
}

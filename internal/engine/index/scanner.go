package index

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Scanner reads blank-line delimited records from a decompressed index one at a time.
// Only the current record is held in memory.
type Scanner struct {
	r    *bufio.Reader
	text string
	err  error
	done bool
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next non-empty record. A final record without a terminating
// blank line is still returned.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	var b strings.Builder
	for {
		line, err := s.r.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) == "" {
				if b.Len() > 0 {
					s.text = b.String()
					return true
				}
			} else {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(line)
			}
		}
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
				return false
			}
			if b.Len() > 0 {
				s.text = b.String()
				return true
			}
			return false
		}
	}
}

// Text returns the current record without a trailing newline.
func (s *Scanner) Text() string {
	return s.text
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// recordWriter writes records separated by exactly one blank line and terminates the
// last one with a newline.
type recordWriter struct {
	w     io.Writer
	count int
}

func (rw *recordWriter) write(record string) error {
	record = strings.TrimRight(record, "\n")
	if record == "" {
		return nil
	}
	if rw.count > 0 {
		if _, err := io.WriteString(rw.w, "\n\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(rw.w, record); err != nil {
		return err
	}
	rw.count++
	return nil
}

func (rw *recordWriter) finish() error {
	if rw.count == 0 {
		return nil
	}
	_, err := io.WriteString(rw.w, "\n")
	return err
}

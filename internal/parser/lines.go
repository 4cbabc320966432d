package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// ScanLines calls fn for every non-empty line of r with its 1-based line
// number. Lines have no length limit. Returning false from fn stops the scan.
func ScanLines(r io.Reader, fn func(lineNo int, line []byte) bool) error {
	reader := bufio.NewReaderSize(r, 256*1024)
	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			line = bytes.TrimRight(line, "\r\n")
			if len(line) > 0 && !fn(lineNo, line) {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// ReadMessages decodes every well-formed line of a transcript, returning the
// records and the number of lines that failed to decode.
func ReadMessages(filePath string) ([]model.MessageRecord, int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	sessionID := model.GetSessionID(filePath)
	var records []model.MessageRecord
	skipped := 0

	err = ScanLines(file, func(_ int, line []byte) bool {
		rec, err := DecodeMessage(line)
		if err != nil {
			skipped++
			return true
		}
		if rec.Role == model.RoleOther || rec.Text == "" {
			return true
		}
		if rec.SessionID == "" {
			rec.SessionID = sessionID
		}
		records = append(records, rec)
		return true
	})
	return records, skipped, err
}

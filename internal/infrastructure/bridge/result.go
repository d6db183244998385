package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// ResultStatus is the status a worker reports in its result line
type ResultStatus string

const (
	ResultSuccess   ResultStatus = "success"
	ResultCancelled ResultStatus = "cancelled"
	ResultFailed    ResultStatus = "failed"
)

// Worker exit codes
const (
	ExitSuccess   = 0
	ExitFailure   = 1
	ExitCancelled = 2
)

// ResultLine is the single JSON line a worker writes to stdout when it finishes
type ResultLine struct {
	Status     ResultStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	File       string       `json:"file,omitempty"`
	ArchiveKey string       `json:"archiveKey,omitempty"`
	Attempts   int          `json:"attempts,omitempty"`
}

// ExitCode maps the status to the worker's process exit code
func (r ResultLine) ExitCode() int {
	switch r.Status {
	case ResultSuccess:
		return ExitSuccess
	case ResultCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// Write emits the line followed by a newline
func (r ResultLine) Write(w io.Writer) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ParseResultLine finds the last well-formed result line in stdout. Other
// output, such as legacy log lines, is ignored.
func ParseResultLine(stdout []byte) (*ResultLine, bool) {
	var found *ResultLine
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var r ResultLine
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		switch r.Status {
		case ResultSuccess, ResultCancelled, ResultFailed:
			found = &r
		}
	}
	return found, found != nil
}

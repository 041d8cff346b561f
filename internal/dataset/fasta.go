package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one FASTA entry. ID is the first whitespace-delimited token
// of the header line.
type Record struct {
	ID  string
	Seq string
}

// ReadFASTA parses FASTA records from r. Sequence lines are concatenated
// verbatim; blank lines are skipped. Sequence data before the first
// header is an error.
func ReadFASTA(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var records []Record
	var id string
	var seq strings.Builder
	started := false

	flush := func() {
		records = append(records, Record{ID: id, Seq: seq.String()})
		seq.Reset()
	}

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, ">") {
			if started {
				flush()
			}
			started = true
			id = ""
			if fields := strings.Fields(text[1:]); len(fields) > 0 {
				id = fields[0]
			}
			continue
		}
		if !started {
			return nil, fmt.Errorf("dataset: line %d: sequence data before FASTA header", line)
		}
		seq.WriteString(text)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if started {
		flush()
	}
	return records, nil
}

// ReadFASTAFile reads all records from a FASTA file on disk.
func ReadFASTAFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadFASTA(f)
}

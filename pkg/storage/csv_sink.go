package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"stopsum/pkg/metadata"
)

// CSVSink appends post rows to a CSV file
type CSVSink struct {
	path    string
	file    *os.File
	writer  *csv.Writer
	written map[string]bool
	rows    int
	skipped int
	mu      sync.Mutex
}

// NewCSVSink opens <dir>/<name>.csv, creating dir when needed. With resume
// set, an existing file is appended to; otherwise it is truncated and the
// header is written.
func NewCSVSink(dir, name string, resume bool) (*CSVSink, error) {
	if name == "" {
		return nil, fmt.Errorf("output name is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sink := &CSVSink{
		path:    filepath.Join(dir, name+".csv"),
		written: make(map[string]bool),
	}

	writeHeader := true
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		existing, err := sink.scanExistingRows()
		if err != nil {
			return nil, fmt.Errorf("failed to scan existing rows: %w", err)
		}
		if existing {
			writeHeader = false
			flags = os.O_WRONLY | os.O_APPEND
		}
	}

	file, err := os.OpenFile(sink.path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	sink.file = file
	sink.writer = csv.NewWriter(file)

	if writeHeader {
		if err := sink.writer.Write(metadata.Header()); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		sink.writer.Flush()
		if err := sink.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return sink, nil
}

// scanExistingRows loads the ids already present in the file. It reports
// false when there is no file or it is empty.
func (s *CSVSink) scanExistingRows() (bool, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(metadata.Header())

	header, err := r.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if header[0] != metadata.Header()[0] {
		return false, fmt.Errorf("%s does not start with the expected header", s.path)
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		s.written[record[0]] = true
		s.rows++
	}
	return true, nil
}

// Write appends one row. A post whose id is already in the file is skipped.
func (s *CSVSink) Write(post *metadata.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written[post.ID] {
		s.skipped++
		return nil
	}
	if err := s.writer.Write(post.Record()); err != nil {
		return fmt.Errorf("failed to write post %s: %w", post.ID, err)
	}
	s.written[post.ID] = true
	s.rows++
	return nil
}

// Has reports whether a row for id has been written
func (s *CSVSink) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[id]
}

// Flush pushes buffered rows to the file
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file
func (s *CSVSink) Close() error {
	flushErr := s.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return flushErr
	}
	closeErr := s.file.Close()
	s.file = nil
	return errors.Join(flushErr, closeErr)
}

// Path returns the output file path
func (s *CSVSink) Path() string {
	return s.path
}

// Rows returns the number of data rows in the file, including rows present
// before a resume
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Skipped returns the number of duplicate posts ignored by Write
func (s *CSVSink) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

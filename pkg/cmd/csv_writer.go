package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"phishdetect/pkg/config"
)

// CSVWriter appends URL reports to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens filePath for appending and writes the report header
// when the file is new.
func NewCSVWriter(filePath string) (*CSVWriter, error) {
	_, err := os.Stat(filePath)
	isNewFile := os.IsNotExist(err)

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open or create CSV file: %w", err)
	}

	cw := &CSVWriter{
		file:   file,
		writer: csv.NewWriter(file),
	}
	if isNewFile {
		if err := cw.writer.Write(config.ReportCSVHeader); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	return cw, nil
}

// WriteReport writes a single report row.
func (cw *CSVWriter) WriteReport(r config.URLReport) error {
	return cw.writer.Write(r.ToCSVRow())
}

// Close flushes buffered rows and closes the file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	flushErr := cw.writer.Error()
	closeErr := cw.file.Close()

	if flushErr != nil {
		return fmt.Errorf("error flushing CSV writer: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("error closing CSV file: %w", closeErr)
	}
	return nil
}

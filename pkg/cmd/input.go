package cmd

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"phishdetect/pkg/common"
	"strings"
)

// LabeledURL holds a URL and its ground-truth label.
type LabeledURL struct {
	URL        string
	IsPhishing bool
}

// Reading a file containing one URL per line. Blank lines and # comments are skipped.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	return readURLs(file)
}

func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rawURL := strings.TrimSpace(scanner.Text())
		if rawURL == "" || strings.HasPrefix(rawURL, "#") {
			continue
		}
		urls = append(urls, common.NormalizeURL(rawURL))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("file contained no URLs")
	}

	return urls, nil
}

// ReadPhishtankURLsFromFile reads a PhishTank CSV export and keeps the
// verified, online entries, all labelled as phishing.
func ReadPhishtankURLsFromFile(filePath string) ([]LabeledURL, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	return readPhishtank(file)
}

func readPhishtank(r io.Reader) ([]LabeledURL, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header row: %w", err)
	}

	colIndex := make(map[string]int)
	for i, colName := range header {
		colIndex[strings.TrimSpace(colName)] = i
	}

	for _, col := range []string{"url", "verified", "online"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("required column '%s' not found in CSV header", col)
		}
	}

	var urls []LabeledURL
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}

		if record[colIndex["verified"]] != "yes" || record[colIndex["online"]] != "yes" {
			continue
		}
		if url := record[colIndex["url"]]; url != "" {
			urls = append(urls, LabeledURL{URL: common.NormalizeURL(url), IsPhishing: true})
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("file contained no valid (verified and online) phishing URLs")
	}

	return urls, nil
}

package backfill

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxLineBytes = 4 << 20

// ParseFile reads call records from a .jsonl file (one record per line) or a
// .json file holding a single record or an array of them.
func ParseFile(path string) ([]CallRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return parseJSONL(path)
	case ".json":
		return parseJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func parseJSONL(path string) ([]CallRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var records []CallRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec CallRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return records, nil
}

func parseJSON(path string) ([]CallRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var records []CallRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		return records, nil
	}
	var rec CallRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return []CallRecord{rec}, nil
}

package metadata

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode converts a package record to JSON.
// The output is deterministic - same input will always produce the same output,
// which the record cache relies on for change detection.
func Encode(record *PackageRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	if record.Version == "" {
		cp := *record
		cp.Version = FormatVersion
		record = &cp
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode package record: %w", err)
	}
	return data, nil
}

// Decode parses a JSON package record.
func Decode(data []byte) (*PackageRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedRecord)
	}
	var record PackageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := checkVersion(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DecodeYAML parses a YAML package record.
func DecodeYAML(data []byte) (*PackageRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedRecord)
	}
	var record PackageRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := checkVersion(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DecodeFile picks a decoder from the file name: .json, .yml/.yaml, with an
// optional .gz suffix for gzip-compressed content.
func DecodeFile(name string, data []byte) (*PackageRecord, error) {
	if strings.HasSuffix(name, ".gz") {
		raw, err := Decompress(data)
		if err != nil {
			return nil, err
		}
		data = raw
		name = strings.TrimSuffix(name, ".gz")
	}

	switch filepath.Ext(name) {
	case ".json":
		return Decode(data)
	case ".yml", ".yaml":
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported record format: %s", name)
	}
}

// IsRecordFile reports whether DecodeFile understands name.
func IsRecordFile(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".json", ".yml", ".yaml":
		return true
	}
	return false
}

func checkVersion(record *PackageRecord) error {
	if record.Version == "" {
		record.Version = FormatVersion
		return nil
	}
	major := strings.SplitN(record.Version, ".", 2)[0]
	if major != strings.SplitN(FormatVersion, ".", 2)[0] {
		return fmt.Errorf("%w: unsupported format version %s", ErrMalformedRecord, record.Version)
	}
	return nil
}

// Compress compresses data using gzip compression.
// Uses best compression level since records are compressed once and read many times.
func Compress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close() // Ignore close error when write failed
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	// Close the writer to flush any remaining data
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip-compressed data.
func Decompress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = reader.Close() // Ignore close error - we already have the data
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}

	return decompressed, nil
}

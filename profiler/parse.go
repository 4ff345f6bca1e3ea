package profiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Parse decodes a profiler export. Containers are normalized while decoding,
// so an unrecognized encoding is reported here rather than miscounted later.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("decode profiler document: empty input")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("decode profiler document: expected a JSON object, got %.20s", data)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profiler document: %w", err)
	}
	return &doc, nil
}

// Decode reads a whole profiler export from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read profiler document: %w", err)
	}
	return Parse(data)
}

// FromValue accepts an already decoded JSON value (maps, slices, numbers) and
// normalizes it the same way Parse does.
func FromValue(v any) (*Document, error) {
	switch doc := v.(type) {
	case *Document:
		return doc, nil
	case Document:
		return &doc, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode profiler value: %w", err)
	}
	return Parse(data)
}

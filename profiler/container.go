package profiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrUnknownEncoding is returned when a keyed field holds a JSON shape that is
// none of the recognized container encodings.
var ErrUnknownEncoding = errors.New("unknown container encoding")

// Encoding identifies how a keyed field was written in the profiler export.
type Encoding int

const (
	// EncodingEmpty is used for null, absent and zero-length containers.
	EncodingEmpty Encoding = iota
	// EncodingKeyed is the DevTools serialization of a Map: [[key, value], ...].
	EncodingKeyed
	// EncodingEntries is a list of objects that carry their own "id".
	EncodingEntries
	// EncodingRecord is a plain object keyed by the stringified id.
	EncodingRecord
)

func (e Encoding) String() string {
	switch e {
	case EncodingEmpty:
		return "empty"
	case EncodingKeyed:
		return "keyed"
	case EncodingEntries:
		return "entries"
	case EncodingRecord:
		return "record"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Container is a fiber-id keyed collection that hides which of the three
// export encodings was used. The shape is detected once while decoding;
// afterwards every encoding behaves identically.
//
// The zero value is an empty container.
type Container[T any] struct {
	values   map[int]T
	keys     []int // ascending
	encoding Encoding
}

// NewContainer builds a container from an in-memory map.
func NewContainer[T any](values map[int]T) Container[T] {
	c := Container[T]{encoding: EncodingEmpty}
	for k, v := range values {
		c.set(k, v)
	}
	if len(c.keys) > 0 {
		c.encoding = EncodingKeyed
	}
	sort.Ints(c.keys)
	return c
}

// ForEach calls fn for every entry in ascending key order.
func (c Container[T]) ForEach(fn func(value T, key int)) {
	for _, k := range c.keys {
		fn(c.values[k], k)
	}
}

// Get returns the value stored under key. The boolean is false when the key
// is absent, regardless of encoding.
func (c Container[T]) Get(key int) (T, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len reports the number of distinct keys.
func (c Container[T]) Len() int {
	return len(c.keys)
}

// Keys returns a copy of the keys in ascending order.
func (c Container[T]) Keys() []int {
	out := make([]int, len(c.keys))
	copy(out, c.keys)
	return out
}

// Encoding reports the shape the container was decoded from.
func (c Container[T]) Encoding() Encoding {
	return c.encoding
}

func (c *Container[T]) set(key int, v T) {
	if c.values == nil {
		c.values = make(map[int]T)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Container[T]) UnmarshalJSON(data []byte) error {
	*c = Container[T]{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var err error
	switch data[0] {
	case '{':
		err = c.decodeRecord(data)
	case '[':
		err = c.decodeSequence(data)
	default:
		return fmt.Errorf("%w: expected object or array, got %.20s", ErrUnknownEncoding, data)
	}
	if err != nil {
		return err
	}
	sort.Ints(c.keys)
	return nil
}

// MarshalJSON writes the record encoding, which round-trips through
// UnmarshalJSON.
func (c Container[T]) MarshalJSON() ([]byte, error) {
	out := make(map[string]T, len(c.keys))
	for _, k := range c.keys {
		out[strconv.Itoa(k)] = c.values[k]
	}
	return json.Marshal(out)
}

func (c *Container[T]) decodeRecord(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		key, err := parseKey(k)
		if err != nil {
			return fmt.Errorf("%w: record key %q: %v", ErrUnknownEncoding, k, err)
		}
		val, err := decodeValue[T](v)
		if err != nil {
			return fmt.Errorf("record key %d: %w", key, err)
		}
		c.set(key, val)
	}
	if len(raw) > 0 {
		c.encoding = EncodingRecord
	}
	return nil
}

func (c *Container[T]) decodeSequence(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	for i, item := range items {
		item = bytes.TrimSpace(item)
		var (
			key int
			val T
			enc Encoding
			err error
		)
		switch {
		case len(item) > 0 && item[0] == '[':
			enc = EncodingKeyed
			key, val, err = decodePair[T](item)
		case len(item) > 0 && item[0] == '{':
			enc = EncodingEntries
			key, val, err = decodeEntry[T](item)
		default:
			return fmt.Errorf("%w: element %d is neither a [key, value] pair nor an entry object", ErrUnknownEncoding, i)
		}
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if c.encoding != EncodingEmpty && c.encoding != enc {
			return fmt.Errorf("%w: element %d mixes %s and %s encodings", ErrUnknownEncoding, i, c.encoding, enc)
		}
		c.encoding = enc
		// Entries are searched front to back, so the first entry for an id
		// shadows later ones. Keyed pairs rebuild a Map, where the last wins.
		if _, dup := c.values[key]; dup && enc == EncodingEntries {
			continue
		}
		c.set(key, val)
	}
	return nil
}

func decodePair[T any](item json.RawMessage) (int, T, error) {
	var zero T
	var pair []json.RawMessage
	if err := json.Unmarshal(item, &pair); err != nil {
		return 0, zero, err
	}
	if len(pair) != 2 {
		return 0, zero, fmt.Errorf("%w: pair has %d elements", ErrUnknownEncoding, len(pair))
	}
	key, err := parseRawKey(pair[0])
	if err != nil {
		return 0, zero, err
	}
	val, err := decodeValue[T](pair[1])
	if err != nil {
		return 0, zero, fmt.Errorf("key %d: %w", key, err)
	}
	return key, val, nil
}

// decodeEntry decodes an object carrying its own id. The entry itself is the
// value unless T cannot hold an object, in which case its "value" field is
// used.
func decodeEntry[T any](item json.RawMessage) (int, T, error) {
	var zero T
	var head struct {
		ID    json.RawMessage `json:"id"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(item, &head); err != nil {
		return 0, zero, err
	}
	if len(head.ID) == 0 {
		return 0, zero, fmt.Errorf("%w: entry without id", ErrUnknownEncoding)
	}
	key, err := parseRawKey(head.ID)
	if err != nil {
		return 0, zero, err
	}

	var val T
	if err := json.Unmarshal(item, &val); err == nil {
		return key, val, nil
	} else if len(head.Value) == 0 {
		return 0, zero, fmt.Errorf("entry %d: %w", key, err)
	}
	val, err = decodeValue[T](head.Value)
	if err != nil {
		return 0, zero, fmt.Errorf("entry %d: %w", key, err)
	}
	return key, val, nil
}

func decodeValue[T any](raw json.RawMessage) (T, error) {
	var v T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func parseRawKey(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: key %.20s: %v", ErrUnknownEncoding, raw, err)
	}
	key, err := parseKey(string(n))
	if err != nil {
		return 0, fmt.Errorf("%w: key %s: %v", ErrUnknownEncoding, n, err)
	}
	return key, nil
}

// parseKey accepts integral ids, including float spellings such as "3.0".
func parseKey(s string) (int, error) {
	if k, err := strconv.Atoi(s); err == nil {
		return k, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer id: %s", s)
	}
	return int(f), nil
}

package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sdpower/ctxgw-report/internal/logger"
	"github.com/sdpower/ctxgw-report/internal/types"
)

// ParseJSONL decodes one JSON object per line, in input order. Blank lines are
// ignored; lines that are not a JSON object are skipped and counted.
func ParseJSONL[T any](raw []byte) (records []T, skipped int) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))

	// No line can be longer than the whole input, so a buffer of that size
	// never fails with bufio.ErrTooLong.
	maxLine := len(raw) + 1
	if maxLine < 64*1024 {
		maxLine = 64 * 1024
	}
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// Only objects are records; null, numbers and arrays are malformed.
		if line[0] != '{' {
			skipped++
			continue
		}

		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) || !decodeWholeFloats(line, &rec) {
				skipped++
				continue
			}
		}
		records = append(records, rec)
	}

	return records, skipped
}

// decodeWholeFloats retries a line whose counters were written as floats,
// e.g. "original_tokens": 1000.0. Whole-valued floats are rewritten as
// integers; anything else still fails.
func decodeWholeFloats[T any](line []byte, rec *T) bool {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return false
	}
	normalized, err := json.Marshal(wholeFloats(doc))
	if err != nil {
		return false
	}

	var fresh T
	if err := json.Unmarshal(normalized, &fresh); err != nil {
		return false
	}
	*rec = fresh
	return true
}

func wholeFloats(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = wholeFloats(item)
		}
	case []any:
		for i, item := range v {
			v[i] = wholeFloats(item)
		}
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			return v
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
			return v
		}
		return json.Number(fmt.Sprintf("%d", int64(f)))
	}
	return v
}

// ParseRequestLog parses the gateway request log.
func ParseRequestLog(raw []byte) []types.RequestEvent {
	records, skipped := ParseJSONL[types.RequestEvent](raw)
	if skipped > 0 {
		logger.Debug("skipped malformed request log lines", "skipped", skipped, "parsed", len(records))
	}
	return records
}

// ParseCompressionLog parses the tool-output compression log.
func ParseCompressionLog(raw []byte) []types.CompressionEvent {
	records, skipped := ParseJSONL[types.CompressionEvent](raw)
	if skipped > 0 {
		logger.Debug("skipped malformed compression log lines", "skipped", skipped, "parsed", len(records))
	}
	return records
}

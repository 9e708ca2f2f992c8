package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

// extractJSONObject returns the span from the first '{' to the last '}'
// of raw, tolerating fences or prose around the object.
func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object found", domain.ErrMalformedResponse)
	}
	return raw[start : end+1], nil
}

// parseLineRecord extracts, parses, decodes and normalizes model output.
func parseLineRecord(raw string, kind domain.VisualsKind) (domain.LineRecord, error) {
	candidate, err := extractJSONObject(raw)
	if err != nil {
		return domain.LineRecord{}, err
	}
	if !json.Valid([]byte(candidate)) {
		return domain.LineRecord{}, domain.ErrParseFailure
	}

	rec, err := domain.DecodeLineRecord([]byte(candidate), kind)
	if err != nil {
		return domain.LineRecord{}, err
	}
	return rec.Normalize()
}

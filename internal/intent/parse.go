package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// ErrMalformedResponse marks verdicts the model produced but the parser
// could not coerce into the schema. Distinct from transport failures so logs
// can tell "model disagreed with schema" apart from "call failed"; both feed
// the same DefaultVerdict fallback.
var ErrMalformedResponse = errors.New("malformed classifier response")

// parseVerdict coerces raw LLM output into a Verdict: strip surrounding
// prose, repair malformed JSON, unmarshal, then normalize fields.
func parseVerdict(raw string) (*Verdict, error) {
	payload := extractJSON(raw)

	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, repairErr)
		}

		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
		}
	}

	v.Intent = normalizeIntent(v.Intent)

	if v.Confidence < 0 {
		v.Confidence = 0
	}

	if v.Confidence > 1 {
		v.Confidence = 1
	}

	return &v, nil
}

func normalizeIntent(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case db.IntentPositive:
		return db.IntentPositive
	case db.IntentNegative:
		return db.IntentNegative
	case db.IntentInterested:
		return db.IntentInterested
	default:
		return db.IntentOther
	}
}

// extractJSON tries to extract JSON from a response that might have extra text.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

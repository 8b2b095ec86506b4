package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateAndNormalize checks a CollectedItem's required fields and fills in
// defaults, per the Submission Validator: validation is pure
// and side-effect-free beyond auto-filling a missing UUID. It returns a
// ValidationError describing the first offending field, or nil.
func (c *CollectedItem) ValidateAndNormalize() error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}

	if strings.TrimSpace(c.Token) == "" {
		return &ValidationError{Field: "token", Message: "token is required"}
	}

	if strings.TrimSpace(c.Content) == "" {
		return &ValidationError{Field: "content", Message: "content must not be empty"}
	}

	return nil
}

// Validate checks a ProcessedItem decoded from an LLM response against the
// schema the Analysis Worker requires before enrichment.
// UUID is required; Rate may be empty; EventText absent is a valid business-drop
// signal, not a validation failure ("EVENT_TEXT absent means the LLM judged the
// item unworthy").
func (p *ProcessedItem) Validate() error {
	if p.UUID == uuid.Nil {
		return &ValidationError{Field: "uuid", Message: "uuid is required"}
	}

	if p.EventTitle == "" && p.EventBrief == "" && !p.Dropped() {
		return &ValidationError{
			Field:   "event_title",
			Message: "event_title or event_brief is required when event_text is present",
		}
	}

	return nil
}

// sanitizeRateKeys returns keyOrder filtered down to keys actually present
// in the decoded JSON object, in the order the decoder encountered them.
// Go's encoding/json does not preserve map key order, so callers that need
// the "scan in stable insertion order" tie-break must capture
// key order themselves while streaming the token stream; this helper
// validates a caller-supplied order against the map it claims to describe.
func sanitizeRateKeys(rate Rate, keyOrder []string) []string {
	out := make([]string, 0, len(keyOrder))
	for _, k := range keyOrder {
		if _, ok := rate[k]; ok {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		for k := range rate {
			out = append(out, k)
		}
	}
	return out
}

// RateKeyOrder walks the raw JSON object the Analysis Worker extracted from
// an LLM reply and returns the keys of its top-level "rate" object in the
// order they appear on the wire, sanitized against rate itself. Go's
// encoding/json discards object key order, so MAX_RATE's stable tie-break
// requires walking the raw tokens once before unmarshaling into the Rate map.
func RateKeyOrder(raw []byte, rate Rate) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	depth := 0
	inRate := false
	rateDepth := 0
	var order []string

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if inRate && depth < rateDepth {
					inRate = false
				}
			}
		case string:
			if !inRate && strings.EqualFold(t, "rate") {
				inRate = true
				rateDepth = depth
				continue
			}
			if inRate && depth == rateDepth+1 {
				order = append(order, t)
			}
		}
	}
	return sanitizeRateKeys(rate, order), nil
}

// ValidationErrors aggregates multiple field errors, mirroring the
// aggregated-validation style used elsewhere in the codebase (see
// WorkerConfig.Validate).
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

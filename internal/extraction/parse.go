package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// parseReceiptJSON parses the provider's response text into ReceiptFields.
//
// Models sometimes wrap their answer in a markdown fence even when asked for
// a JSON media type, so one leading ```json (or bare ```) marker and one
// trailing ``` marker are stripped, anchored at the very start and end only.
// Anything that then fails to parse or violates the expected shape is a
// MalformedExtractionError.
func parseReceiptJSON(text string) (*ReceiptFields, error) {
	cleaned := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(cleaned, "```json"); ok {
		cleaned = rest
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &MalformedExtractionError{Text: text, Err: err}
	}

	if err := receiptSchema.Validate(raw); err != nil {
		return nil, &MalformedExtractionError{Text: text, Err: err}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &MalformedExtractionError{Text: text, Err: fmt.Errorf("expected a JSON object, got %T", raw)}
	}

	fields := &ReceiptFields{
		Date:        stringField(obj, "date"),
		Amount:      amountField(obj),
		Payee:       stringField(obj, "payee"),
		Description: stringField(obj, "description"),
	}
	return fields, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// amountField coerces the amount to whole currency units. Models
// occasionally return the number as a string; anything non-numeric
// becomes zero and is left for the user to correct during review.
func amountField(obj map[string]any) int64 {
	switch v := obj["amount"].(type) {
	case float64:
		return int64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

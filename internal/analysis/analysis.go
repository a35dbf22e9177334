// Package analysis implements the tabular analysis applied to task payloads.
// It is pure with respect to the queue: input text in, summary or error
// descriptor out, no side effects, and identical output for identical input.
package analysis

import "fmt"

// ProcessingError is the error descriptor published in place of a summary
// when analysis fails. It marshals to the wire shape {"error", "error_type"}.
type ProcessingError struct {
	Message string `json:"error"`
	Kind    string `json:"error_type"`
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// Process analyses the payload and returns the summary. The returned error,
// when non-nil, is always a *ProcessingError: no failure escapes this
// boundary unguarded, and the caller publishes the descriptor as the task's
// result.
//
// Payload interpretation is tiered: delimited text with a header row first,
// then a JSON array of records, then a fallback treating each non-blank line
// as one value of a single "values" column. The fallback never fails, so
// every payload gets a representation; errors only arise from faults after a
// representation is chosen.
func Process(payload string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ProcessingError{
				Message: fmt.Sprint(r),
				Kind:    "panic",
			}
		}
	}()

	return summarize(parseTable(payload)), nil
}

func parseTable(payload string) *table {
	if t, err := parseDelimited(payload); err == nil {
		return t
	}
	if t, err := parseRecords(payload); err == nil {
		return t
	}
	return parseLines(payload)
}

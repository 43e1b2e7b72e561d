package services

import "strings"

// Answer is the normalized form of a response's categorical value.
type Answer string

const (
	AnswerYes           Answer = "yes"
	AnswerNo            Answer = "no"
	AnswerNotApplicable Answer = "not_applicable"
	AnswerOther         Answer = "other"
)

// NormalizeAnswer maps the loosely-typed answer/response_value pair onto the
// Answer enum. Matching is case-insensitive and happens only here; internal
// logic never re-implements string comparison. When the categorical answer is
// free text, the normalized response_value is consulted before giving up.
func NormalizeAnswer(answer string, responseValue *string) Answer {
	if a := normalizeOne(answer); a != AnswerOther {
		return a
	}
	if responseValue != nil {
		if a := normalizeOne(*responseValue); a != AnswerOther {
			return a
		}
	}
	return AnswerOther
}

func normalizeOne(raw string) Answer {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true":
		return AnswerYes
	case "no", "n", "false":
		return AnswerNo
	case "n/a", "na", "n.a.", "not applicable", "not_applicable":
		return AnswerNotApplicable
	}
	return AnswerOther
}

// Unsatisfactory reports whether the answer qualifies its response for
// recommendation derivation.
func (a Answer) Unsatisfactory() bool {
	return a == AnswerNo || a == AnswerNotApplicable
}

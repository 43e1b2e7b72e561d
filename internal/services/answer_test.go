package services

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	val := func(s string) *string { return &s }
	cases := []struct {
		answer        string
		responseValue *string
		want          Answer
	}{
		{"Yes", nil, AnswerYes},
		{"  YES ", nil, AnswerYes},
		{"y", nil, AnswerYes},
		{"No", nil, AnswerNo},
		{"n", nil, AnswerNo},
		{"N/A", nil, AnswerNotApplicable},
		{"na", nil, AnswerNotApplicable},
		{"Not Applicable", nil, AnswerNotApplicable},
		{"we use a third-party audit", nil, AnswerOther},
		{"see notes", val("no"), AnswerNo},
		{"see notes", val("Yes"), AnswerYes},
		{"see notes", val("partially"), AnswerOther},
		{"", nil, AnswerOther},
	}
	for _, c := range cases {
		if got := NormalizeAnswer(c.answer, c.responseValue); got != c.want {
			t.Fatalf("NormalizeAnswer(%q, %v) = %q, want %q", c.answer, c.responseValue, got, c.want)
		}
	}
}

func TestAnswerUnsatisfactory(t *testing.T) {
	if !AnswerNo.Unsatisfactory() || !AnswerNotApplicable.Unsatisfactory() {
		t.Fatal("No and N/A must be unsatisfactory")
	}
	if AnswerYes.Unsatisfactory() || AnswerOther.Unsatisfactory() {
		t.Fatal("Yes and Other must not be unsatisfactory")
	}
}

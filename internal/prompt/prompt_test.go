package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdinDeciderAnswers(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false}, // EOF counts as a decline
	}

	for _, tt := range tests {
		var out bytes.Buffer
		d := &StdinDecider{in: strings.NewReader(tt.answer), out: &out}

		if got := d.Confirm("proceed?"); got != tt.want {
			t.Errorf("Answer %q: expected %v, got %v", tt.answer, tt.want, got)
		}
		if !strings.Contains(out.String(), "proceed?") {
			t.Errorf("Question was not printed: %q", out.String())
		}
	}
}

func TestStaticDecider(t *testing.T) {
	if !StaticDecider(true).Confirm("anything") {
		t.Error("StaticDecider(true) should confirm")
	}
	if StaticDecider(false).Confirm("anything") {
		t.Error("StaticDecider(false) should decline")
	}
}

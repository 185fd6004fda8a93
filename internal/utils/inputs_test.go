package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestAskYesNo_Yes(t *testing.T) {
	inputs := []string{
		"y\n",
		"Y\n",
		"yes\n",
		"YES\n",
		"  yes  \n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			var out bytes.Buffer
			if !AskYesNo(strings.NewReader(input), &out, "Test question") {
				t.Errorf("AskYesNo(%q) = false, want true", input)
			}
		})
	}
}

func TestAskYesNo_No(t *testing.T) {
	inputs := []string{
		"n\n",
		"N\n",
		"no\n",
		"NO\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			var out bytes.Buffer
			if AskYesNo(strings.NewReader(input), &out, "Test question") {
				t.Errorf("AskYesNo(%q) = true, want false", input)
			}
		})
	}
}

func TestAskYesNo_RetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	got := AskYesNo(strings.NewReader("maybe\nyes\n"), &out, "Sign out?")

	if !got {
		t.Error("Expected yes after retry")
	}
	if strings.Count(out.String(), "Sign out? (y/n): ") != 2 {
		t.Errorf("Expected the question twice, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Please enter y or n") {
		t.Errorf("Expected retry hint, got %q", out.String())
	}
}

func TestAskYesNo_EOFMeansNo(t *testing.T) {
	var out bytes.Buffer
	if AskYesNo(strings.NewReader(""), &out, "Continue?") {
		t.Error("End of input should count as no")
	}
	if AskYesNo(strings.NewReader("y"), &out, "Continue?") != true {
		t.Error("Answer without trailing newline should still count")
	}
}

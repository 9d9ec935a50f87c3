package diagnose

import (
	"strings"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		stderr   string
		wantOK   bool
		wantPart string
	}{
		{
			"zero division",
			"Traceback (most recent call last):\n  File \"main.py\", line 1, in <module>\nZeroDivisionError: division by zero",
			true, "divides by zero",
		},
		{
			"name error captures name",
			"NameError: name 'totl' is not defined",
			true, `"totl"`,
		},
		{
			"list index",
			"IndexError: list index out of range",
			true, "past the end of a list",
		},
		{
			"operand types",
			"TypeError: unsupported operand type(s) for +: 'int' and 'str'",
			true, "int",
		},
		{
			"missing arguments",
			"TypeError: add() missing 1 required positional argument: 'b'",
			true, "add()",
		},
		{
			"int conversion",
			"ValueError: invalid literal for int() with base 10: 'abc'",
			true, `"abc"`,
		},
		{
			"attribute error",
			"AttributeError: 'int' object has no attribute 'append'",
			true, `"append"`,
		},
		{
			"indentation",
			"  File \"main.py\", line 3\n    print(x)\nIndentationError: unexpected indent",
			true, "indentation",
		},
		{
			"recursion",
			"RecursionError: maximum recursion depth exceeded",
			true, "base case",
		},
		{
			"assertion with detail",
			"AssertionError: add(2, 3) should be 5",
			true, "add(2, 3) should be 5",
		},
		{
			"unknown exception falls through",
			"SomethingUnheardOfError: mystery",
			false, "",
		},
		{
			"empty stderr",
			"",
			false, "",
		},
		{
			"whitespace only",
			"   \n\t\n",
			false, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Translate(tt.stderr)
			if ok != tt.wantOK {
				t.Fatalf("Translate() ok = %v, want %v (msg = %q)", ok, tt.wantOK, msg)
			}
			if tt.wantOK && !strings.Contains(msg, tt.wantPart) {
				t.Errorf("Translate() = %q; want to contain %q", msg, tt.wantPart)
			}
			if tt.wantOK && strings.Contains(msg, "%!") {
				t.Errorf("Translate() = %q; bad template expansion", msg)
			}
		})
	}
}

func TestTranslate_TruncatedTraceback(t *testing.T) {
	// A timeout can cut the traceback anywhere; Translate must not panic
	// and must still match what survived.
	full := "Traceback (most recent call last):\n  File \"main.py\", line 9, in <module>\nNameError: name 'counter' is not defined"
	for i := 0; i <= len(full); i += 7 {
		_, _ = Translate(full[:i])
	}

	msg, ok := Translate(full)
	if !ok || !strings.Contains(msg, "counter") {
		t.Errorf("Translate(full) = (%q, %v); want match naming counter", msg, ok)
	}
}

func TestTranslate_SpecificBeforeGeneric(t *testing.T) {
	msg, ok := Translate("SyntaxError: unterminated string literal (detected at line 2)")
	if !ok {
		t.Fatal("Translate() ok = false")
	}
	if !strings.Contains(msg, "closing quote") {
		t.Errorf("Translate() = %q; want the unterminated-string message, not the generic syntax one", msg)
	}
}

// Package diagnose maps raw interpreter failures to short, learner-facing
// explanations. Translation is best-effort: when no signature matches, the
// caller keeps the raw stderr as a fallback for display.
package diagnose

import (
	"fmt"
	"regexp"
	"strings"
)

// rule pairs a traceback signature with a message template. Captured
// groups feed the template's verbs in order.
type rule struct {
	pattern *regexp.Regexp
	message string
}

// The table is ordered: more specific signatures come before generic
// ones of the same exception class.
var rules = []rule{
	{
		regexp.MustCompile(`ZeroDivisionError`),
		"Your code divides by zero. Check the value of the divisor before dividing.",
	},
	{
		regexp.MustCompile(`NameError: name '([^']+)' is not defined`),
		"Your code uses %q before it has been given a value. Check the spelling, or assign it first.",
	},
	{
		regexp.MustCompile(`IndexError: list index out of range`),
		"Your code reads past the end of a list. Remember indexes start at 0, so the last item is at len(list) - 1.",
	},
	{
		regexp.MustCompile(`IndexError: string index out of range`),
		"Your code reads past the end of a string. The last character is at position len(s) - 1.",
	},
	{
		regexp.MustCompile(`KeyError: (.+)`),
		"Your code looks up the key %s, but the dictionary has no such key. Check it exists first, or use .get().",
	},
	{
		regexp.MustCompile(`TypeError: unsupported operand type\(s\) for ([^:]+): '([^']+)' and '([^']+)'`),
		"You used %s between a %s and a %s, which Python cannot combine. Convert one of them first.",
	},
	{
		regexp.MustCompile(`TypeError: can only concatenate str`),
		"You tried to join a string with something that is not a string. Convert it with str() first.",
	},
	{
		regexp.MustCompile(`TypeError: '([^']+)' object is not (callable|subscriptable|iterable)`),
		"A %s value is being used as something it is not (%s). Check what the variable actually holds at that point.",
	},
	{
		regexp.MustCompile(`TypeError: ([\w.]+)\(\) missing (\d+) required positional arguments?`),
		"The call to %s() is missing %s required argument(s). Compare the call with the function's definition.",
	},
	{
		regexp.MustCompile(`TypeError: ([\w.]+)\(\) takes (\d+) positional arguments? but (\d+) (?:was|were) given`),
		"%s() expects %s argument(s) but was given %s. Compare the call with the function's definition.",
	},
	{
		regexp.MustCompile(`ValueError: invalid literal for int\(\) with base \d+: '([^']*)'`),
		"int() cannot turn %q into a number. Make sure the text contains only digits before converting.",
	},
	{
		regexp.MustCompile(`AttributeError: '([^']+)' object has no attribute '([^']+)'`),
		"A %s value has no attribute or method called %q. Check the type of the variable and the spelling.",
	},
	{
		regexp.MustCompile(`IndentationError`),
		"The indentation is inconsistent. Python groups code by indentation, so every line in a block must line up exactly.",
	},
	{
		regexp.MustCompile(`SyntaxError: invalid syntax`),
		"Python could not parse this line. Look for a missing colon, bracket, or quote just before the marked spot.",
	},
	{
		regexp.MustCompile(`SyntaxError: unterminated string literal`),
		"A string is missing its closing quote.",
	},
	{
		regexp.MustCompile(`SyntaxError`),
		"Python could not parse your code. Check the line mentioned in the error for a typo.",
	},
	{
		regexp.MustCompile(`RecursionError`),
		"A function keeps calling itself without stopping. Make sure the recursion has a base case that is actually reached.",
	},
	{
		regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`),
		"The module %q is not available here. Exercises only use Python's built-in modules.",
	},
	{
		regexp.MustCompile(`UnboundLocalError: .*'([^']+)'`),
		"Inside the function, %q is read before it is assigned. Assign it first, or pass it in as a parameter.",
	},
	{
		regexp.MustCompile(`AssertionError: (.+)`),
		"A check failed: %s",
	},
}

// Translate maps raw stderr from the interpreter to a friendly message.
// It returns ok=false when no known signature matches; the caller should
// then fall back to showing the raw output. Safe on partial or truncated
// stderr.
func Translate(stderr string) (string, bool) {
	if strings.TrimSpace(stderr) == "" {
		return "", false
	}

	// The exception line is the last non-empty line of a traceback; scan
	// the whole text anyway since timeouts can truncate it mid-way.
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(stderr)
		if m == nil {
			continue
		}
		if len(m) == 1 {
			return r.message, true
		}
		args := make([]any, len(m)-1)
		for i, g := range m[1:] {
			args[i] = g
		}
		return fmt.Sprintf(r.message, args...), true
	}
	return "", false
}

package domain

import (
	"strconv"
	"strings"
)

// ConfirmationEntry maps a transient per-channel number to a pending submission.
// ConfirmNumber is 0-based; users see ConfirmNumber+1.
type ConfirmationEntry struct {
	ChannelID     string
	PromptID      int64
	ConfirmNumber int
}

// DisplayNumber returns the 1-based number shown to users
func (e ConfirmationEntry) DisplayNumber() int {
	return e.ConfirmNumber + 1
}

// NumberRange is an inclusive range of 1-based display numbers
type NumberRange struct {
	First int
	Last  int
}

// ParseNumberRange parses "n" or "a-b" (a <= b) into a range.
// Numbers above max are rejected, since no listing hands them out.
func ParseNumberRange(arg string, max int) (NumberRange, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return NumberRange{}, NewUserError("You must provide a number (`3`) or a range of numbers (`2-4`).")
	}

	first, last, isRange := strings.Cut(arg, "-")
	a, err := parseDisplayNumber(first)
	if err != nil {
		return NumberRange{}, err
	}
	if !isRange {
		return NumberRange{First: a, Last: a}.within(arg, max)
	}

	b, err := parseDisplayNumber(last)
	if err != nil {
		return NumberRange{}, err
	}
	if a > b {
		return NumberRange{}, NewUserError("`%s` is not a valid range: the first number must not be larger than the second.", arg)
	}
	return NumberRange{First: a, Last: b}.within(arg, max)
}

func (r NumberRange) within(arg string, max int) (NumberRange, error) {
	if r.Last > max {
		return NumberRange{}, NewUserError("`%s` is out of range: submissions are numbered 1 to %d.", arg, max)
	}
	return r, nil
}

func parseDisplayNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, NewUserError("`%s` is not a valid number.", s)
	}
	return n, nil
}

// ConfirmNumbers returns the 0-based confirm numbers covered by the range
func (r NumberRange) ConfirmNumbers() []int {
	numbers := make([]int, 0, r.Last-r.First+1)
	for n := r.First; n <= r.Last; n++ {
		numbers = append(numbers, n-1)
	}
	return numbers
}

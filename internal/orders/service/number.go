package service

import (
	"fmt"
	"strconv"
)

// defaultNumberWidth is the zero padding used for the first number issued
// under a prefix (e.g. OS0001).
const defaultNumberWidth = 4

// IncrementNumber takes an issued order number and returns the next one.
// Only the last run of digits is incremented; the surrounding prefix and
// suffix are preserved, as is the zero padding unless the value outgrows it.
//
//	OS0007   -> OS0008
//	OS0099-A -> OS0100-A
//	OS9999   -> OS10000
//
// A number with no digits gets a fresh padded body appended.
func IncrementNumber(number string) string {
	start, end := lastDigitRun(number)
	if start < 0 {
		return number + paddedBody(1, defaultNumberWidth)
	}

	body := number[start:end]
	value, err := strconv.ParseUint(body, 10, 64)
	if err != nil {
		// Digit run too long to parse; restart the body.
		return number[:start] + paddedBody(1, len(body)) + number[end:]
	}

	return number[:start] + paddedBody(value+1, len(body)) + number[end:]
}

// NextNumber derives the next number to issue for a prefix given the latest
// issued number (empty when the sequence is fresh).
func NextNumber(prefix, latest string) string {
	if latest == "" {
		return prefix + paddedBody(1, defaultNumberWidth)
	}
	return IncrementNumber(latest)
}

// lastDigitRun locates the final contiguous run of digits in s, returning
// [-1, -1) when there is none.
func lastDigitRun(s string) (int, int) {
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] >= '0' && s[i] <= '9' {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return -1, -1
	}

	start := end - 1
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	return start, end
}

func paddedBody(value uint64, width int) string {
	return fmt.Sprintf("%0*d", width, value)
}

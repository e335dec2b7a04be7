package security

import (
	"strings"
	"unicode"
)

// PasswordStrength is the coarse classification of a password.
type PasswordStrength string

const (
	PasswordWeak   PasswordStrength = "weak"
	PasswordMedium PasswordStrength = "medium"
	PasswordStrong PasswordStrength = "strong"
)

// MinPasswordLength is the length under which a password is always weak.
const MinPasswordLength = 8

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

var passwordSequences = []string{
	"012", "123", "234", "345", "456", "567", "678", "789", "890",
	"abc", "bcd", "cde",
}

var strengthRank = map[PasswordStrength]int{
	PasswordWeak:   0,
	PasswordMedium: 1,
	PasswordStrong: 2,
}

// AtLeast reports whether s is at least as strong as min.
func (s PasswordStrength) AtLeast(min PasswordStrength) bool {
	return strengthRank[s] >= strengthRank[min]
}

// ParsePasswordStrength maps a config value to a PasswordStrength.
func ParsePasswordStrength(v string) (PasswordStrength, bool) {
	switch PasswordStrength(strings.ToLower(strings.TrimSpace(v))) {
	case PasswordWeak:
		return PasswordWeak, true
	case PasswordMedium:
		return PasswordMedium, true
	case PasswordStrong:
		return PasswordStrong, true
	}
	return "", false
}

// PasswordScore returns the raw score used by ClassifyPasswordStrength.
func PasswordScore(password string) int {
	score := 0
	length := len([]rune(password))

	if length >= 12 {
		score += 2
	} else if length >= 10 {
		score++
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
		if strings.ContainsRune(passwordSymbols, r) {
			symbol = true
		}
	}

	if lower {
		score++
	}
	if upper {
		score++
	}
	if digit {
		score++
	}
	if symbol {
		score += 2
	}

	if !hasRepeatedRun(password, 3) {
		score++
	}
	if !hasSequence(password) {
		score++
	}

	return score
}

// ClassifyPasswordStrength scores a password: >=7 strong, >=4 medium, else
// weak. Anything shorter than MinPasswordLength is weak, and so is a single
// class password padded with a repeated run ("aaaaaaaaaaaa").
func ClassifyPasswordStrength(password string) PasswordStrength {
	if len([]rune(password)) < MinPasswordLength {
		return PasswordWeak
	}
	if characterClasses(password) < 2 && hasRepeatedRun(password, 3) {
		return PasswordWeak
	}

	switch score := PasswordScore(password); {
	case score >= 7:
		return PasswordStrong
	case score >= 4:
		return PasswordMedium
	default:
		return PasswordWeak
	}
}

func characterClasses(s string) int {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	n := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			n++
		}
	}
	return n
}

func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func hasSequence(s string) bool {
	lower := strings.ToLower(s)
	for _, seq := range passwordSequences {
		if strings.Contains(lower, seq) {
			return true
		}
	}
	return false
}

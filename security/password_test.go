package security_test

import (
	"testing"

	"github.com/goliatone/go-authflow/security"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected security.PasswordStrength
	}{
		{name: "short with symbols is weak", password: "short1!", expected: security.PasswordWeak},
		{name: "repeated single class is weak", password: "aaaaaaaaaaaa", expected: security.PasswordWeak},
		{name: "single class with repeated run is weak", password: "zzzqwertyuiop", expected: security.PasswordWeak},
		{name: "long lowercase without repeats is medium", password: "correcthorsebattery", expected: security.PasswordMedium},
		{name: "lowercase without repeats or sequences", password: "zqxwvutsrpmn", expected: security.PasswordMedium},
		{name: "uppercase without repeats or sequences", password: "ZQXWVUTSRPMNKJ", expected: security.PasswordMedium},
		{name: "two classes eight chars", password: "qwerty79", expected: security.PasswordMedium},
		{name: "all classes long", password: "Tr0ub4dor&Zx!", expected: security.PasswordStrong},
		{name: "empty", password: "", expected: security.PasswordWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, security.ClassifyPasswordStrength(tt.password))
		})
	}
}

func TestClassifyPasswordStrengthMixedClassesAtLeastMedium(t *testing.T) {
	strength := security.ClassifyPasswordStrength("Abcdef123!")
	assert.True(t, strength.AtLeast(security.PasswordMedium), "got %s", strength)
}

func TestPasswordScore(t *testing.T) {
	// length>=10 (1) + lower + upper + digit (3) + symbol (2) + no repeats (1); contains "abc"/"123"
	assert.Equal(t, 7, security.PasswordScore("Abcdef123!"))
	// length>=12 (2) + lower (1) + no sequence (1); repeated run withholds a point
	assert.Equal(t, 4, security.PasswordScore("aaaaaaaaaaaa"))
}

func TestParsePasswordStrength(t *testing.T) {
	s, ok := security.ParsePasswordStrength(" Medium ")
	assert.True(t, ok)
	assert.Equal(t, security.PasswordMedium, s)

	_, ok = security.ParsePasswordStrength("extreme")
	assert.False(t, ok)
}

func TestPasswordStrengthAtLeast(t *testing.T) {
	assert.True(t, security.PasswordStrong.AtLeast(security.PasswordMedium))
	assert.True(t, security.PasswordWeak.AtLeast(security.PasswordWeak))
	assert.False(t, security.PasswordWeak.AtLeast(security.PasswordMedium))
}

package bantay_test

import (
	"testing"
	"time"

	"github.com/kdelacruz/bantay"
	"github.com/stretchr/testify/assert"
)

func TestGenerateCode_Format(t *testing.T) {
	ts := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	code := bantay.GenerateCode(bantay.CodePrefixRecord, ts)
	assert.Regexp(t, `^VR-20250310-[0-9A-F]{6}$`, code)

	code = bantay.GenerateCode(bantay.CodePrefixRule, ts)
	assert.Regexp(t, `^RL-20250310-[0-9A-F]{6}$`, code)

	code = bantay.GenerateCode(bantay.CodePrefixCheck, ts)
	assert.Regexp(t, `^CC-20250310-[0-9A-F]{6}$`, code)
}

func TestGenerateCode_Distinct(t *testing.T) {
	ts := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[bantay.GenerateCode(bantay.CodePrefixRecord, ts)] = true
	}
	// 3 random bytes give 16M combinations; 100 draws colliding would
	// point at a broken suffix.
	assert.Greater(t, len(seen), 95)
}

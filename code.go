package bantay

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Display-code prefixes.
const (
	CodePrefixRule   = "RL"
	CodePrefixRecord = "VR"
	CodePrefixCheck  = "CC"
)

// GenerateCode produces a human-readable display code of the form
// PREFIX-YYYYMMDD-XXXXXX with a random hex suffix.
//
// Codes are labels for humans, not identity: the random suffix is small
// enough that collisions are possible under concurrent load, so all
// relationships key on store-assigned UUIDs and creation paths retry on
// a code-unique conflict.
func GenerateCode(prefix string, t time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the timestamp so callers still get a label.
		return fmt.Sprintf("%s-%s-%06d", prefix, t.Format("20060102"), t.Nanosecond()%1000000)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// Package message renders verification verdicts for people.
package message

import (
	"strings"

	"github.com/quidome/ecoquest-go/pkg/verify"
)

const (
	continueHint = `Click "Verify & Continue" to complete your mission.`
	retakeTip    = "💡 Tip: Try taking a new photo with your camera instead of using screenshots or downloaded images."
	fallbackFail = "Verification failed. Please try again."
)

// Format returns the single message shown for v.
func Format(v verify.Verdict) string {
	var b strings.Builder

	if v.Verified {
		b.WriteString("✅ Photo Verified!\n\n")
		if v.Exif != nil && v.Exif.CaptureTimestamp != "" {
			b.WriteString("📅 Taken: " + v.Exif.CaptureTimestamp + "\n")
		}
		writeWarnings(&b, v.Warnings)
		b.WriteString("\n\n" + continueHint)
		return b.String()
	}

	errs := strings.Join(v.Errors, "\n\n❌ ")
	if errs == "" {
		errs = fallbackFail
	}
	b.WriteString("❌ " + errs)
	if len(v.Warnings) > 0 {
		b.WriteString("\n")
		writeWarnings(&b, v.Warnings)
	}
	b.WriteString("\n\n" + retakeTip)
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\nℹ️ " + strings.Join(warnings, "\nℹ️ "))
}

package logging

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Ten digit numbers, optionally +91 prefixed, with single separators.
	phoneRe = regexp.MustCompile(`(?:\+91[-.\s]?)?\b\d(?:[-.\s]?\d){9}\b`)
)

// ScrubPII replaces emails with [EMAIL] and phone numbers with [PHONE] so free
// text from patients can be logged.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	return phoneRe.ReplaceAllString(text, "[PHONE]")
}

// RedactEmail keeps the first character of the local part and the domain:
// "asha@example.com" becomes "a***@example.com".
func RedactEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		if addr == "" {
			return ""
		}
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}

package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PIILevel defines how much chat content may reach logs.
type PIILevel string

const (
	// PIILevelNone redacts all message content
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces detected PII with salted hashes
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull logs content as is
	PIILevelFull PIILevel = "full"
)

const defaultPreviewRunes = 80

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	phonePattern      = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\b\d{3}[-.\s]?\d{3}[-.\s]?\d{3,4}\b`)
	ipv4Pattern       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// ParsePIILevel maps a config value to a level. Unknown values fall back to hashed.
func ParsePIILevel(raw string) PIILevel {
	switch PIILevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PIILevelNone:
		return PIILevelNone
	case PIILevelFull:
		return PIILevelFull
	default:
		return PIILevelHashed
	}
}

// Sanitizer scrubs chat content and identifiers before they are logged.
type Sanitizer struct {
	level        PIILevel
	salt         string
	previewRunes int
}

// NewSanitizer creates a sanitizer. The salt keeps hashes stable within one deployment only.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level:        level,
		salt:         salt,
		previewRunes: defaultPreviewRunes,
	}
}

// Level returns the configured PII level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// SanitizeContent returns a loggable preview of a chat message.
func (s *Sanitizer) SanitizeContent(content string) string {
	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return s.preview(content)
	default:
		return s.preview(s.hashPII(content))
	}
}

// SanitizeUserID sanitizes a subject id based on the configured PII level
func (s *Sanitizer) SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}

	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return userID
	default:
		return s.hash(userID)
	}
}

func (s *Sanitizer) hashPII(input string) string {
	result := emailPattern.ReplaceAllStringFunc(input, func(match string) string {
		return fmt.Sprintf("[EMAIL:%s]", s.hash(match))
	})
	// Cards first so the phone pattern cannot split a card number.
	result = creditCardPattern.ReplaceAllString(result, "[CC:REDACTED]")
	result = ipv4Pattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[IP:%s]", s.hash(match))
	})
	result = phonePattern.ReplaceAllStringFunc(result, func(match string) string {
		return fmt.Sprintf("[PHONE:%s]", s.hash(match))
	})
	return result
}

func (s *Sanitizer) preview(content string) string {
	if s.previewRunes <= 0 || utf8.RuneCountInString(content) <= s.previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:s.previewRunes]) + "…"
}

// hash returns the first 8 hex chars of a salted SHA-256.
func (s *Sanitizer) hash(data string) string {
	sum := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}

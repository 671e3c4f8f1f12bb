// Package sanitize restricts user input to a character and length envelope
// that is safe to hand to a speech engine.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Sanitization errors.
var (
	// ErrInvalidInput is the base error for all rejected input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput indicates the input was empty, or contained nothing
	// speakable after stripping.
	ErrEmptyInput = fmt.Errorf("%w: nothing to speak", ErrInvalidInput)

	// ErrTextTooLong indicates the input exceeded the configured maximum
	// length and the overflow policy is set to reject.
	ErrTextTooLong = fmt.Errorf("%w: text too long", ErrInvalidInput)

	// ErrDisallowedInput indicates the input contained disallowed characters
	// and the policy is strict.
	ErrDisallowedInput = fmt.Errorf("%w: disallowed characters", ErrInvalidInput)
)

// OverflowPolicy selects what happens to input longer than MaxLength.
type OverflowPolicy int

const (
	// OverflowReject fails input that exceeds MaxLength.
	OverflowReject OverflowPolicy = iota
	// OverflowTruncate cuts input at MaxLength on a rune boundary.
	OverflowTruncate
)

// String returns the string representation of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowTruncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy converts a config value into an OverflowPolicy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "reject", "":
		return OverflowReject, nil
	case "truncate":
		return OverflowTruncate, nil
	default:
		return OverflowReject, fmt.Errorf("invalid overflow policy: %q (use \"reject\" or \"truncate\")", s)
	}
}

// DefaultMaxLength bounds a single utterance. Long enough for a paragraph,
// short enough that a runaway paste doesn't tie up the engine for minutes.
const DefaultMaxLength = 500

// Policy configures the sanitizer.
type Policy struct {
	// MaxLength is the maximum utterance length in runes. Zero means
	// DefaultMaxLength.
	MaxLength int

	// Overflow selects truncation or rejection for over-length input.
	Overflow OverflowPolicy

	// Strict rejects input containing any disallowed character instead of
	// stripping it.
	Strict bool
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxLength: DefaultMaxLength,
		Overflow:  OverflowReject,
	}
}

// Utterance is a unit of sanitized text ready for synthesis. The zero value
// is not usable; only Sanitizer.Sanitize constructs valid Utterances, so
// anything downstream holding one knows the text has been cleaned.
type Utterance struct {
	raw  string
	text string
}

// Raw returns the text as the user entered it.
func (u Utterance) Raw() string { return u.raw }

// Text returns the sanitized text.
func (u Utterance) Text() string { return u.text }

// Valid reports whether the utterance holds sanitized text.
func (u Utterance) Valid() bool { return u.text != "" }

// Sanitizer cleans raw input according to a Policy. It is stateless and safe
// for concurrent use.
type Sanitizer struct {
	policy Policy
}

// New creates a Sanitizer with the given policy.
func New(policy Policy) *Sanitizer {
	if policy.MaxLength <= 0 {
		policy.MaxLength = DefaultMaxLength
	}
	return &Sanitizer{policy: policy}
}

// Punctuation that reads naturally through a speech engine. Everything else
// outside letters, digits and spaces is treated as unsafe: control
// characters, shell metacharacters, and markup that engines tend to
// misrender or that could leak into a subprocess command line.
const allowedPunct = `.,;:!?'"()-`

func allowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	if r == ' ' {
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}

// Sanitize validates and cleans raw input, returning an Utterance ready for
// playback. It is a pure function of the input and the configured policy.
//
// Disallowed characters are stripped (or rejected under Strict), whitespace
// runs collapse to single spaces, and over-length input is truncated or
// rejected per the overflow policy. Input that strips down to nothing fails
// with ErrEmptyInput.
func (s *Sanitizer) Sanitize(raw string) (Utterance, error) {
	if strings.TrimSpace(raw) == "" {
		return Utterance{}, ErrEmptyInput
	}

	var b strings.Builder
	b.Grow(len(raw))

	stripped := false
	lastSpace := true // collapses leading whitespace too
	for _, r := range raw {
		// Any whitespace flavor becomes a plain space.
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if !allowedRune(r) {
			if s.policy.Strict {
				return Utterance{}, fmt.Errorf("%w: %q", ErrDisallowedInput, r)
			}
			stripped = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	text := strings.TrimRight(b.String(), " ")
	if text == "" {
		if stripped {
			return Utterance{}, fmt.Errorf("%w (all characters stripped)", ErrEmptyInput)
		}
		return Utterance{}, ErrEmptyInput
	}

	if runes := []rune(text); len(runes) > s.policy.MaxLength {
		switch s.policy.Overflow {
		case OverflowTruncate:
			text = strings.TrimRight(string(runes[:s.policy.MaxLength]), " ")
		default:
			return Utterance{}, fmt.Errorf("%w: %d runes (limit %d)", ErrTextTooLong, len(runes), s.policy.MaxLength)
		}
	}

	return Utterance{raw: raw, text: text}, nil
}

package aider

import (
	"regexp"
	"strings"
)

// OutcomeKind tags what the classifier found in a log window.
type OutcomeKind int

const (
	// OutcomeNone means no summary marker or error signature matched.
	OutcomeNone OutcomeKind = iota
	// OutcomeSummary means a well-formed <summary> block was found.
	OutcomeSummary
	// OutcomeError means an error signature matched (and no summary did).
	OutcomeError
)

// Outcome is the classification of one invocation's log window.
// Exactly one Kind is produced per invocation; Text holds the summary
// body or the matched error line, and is empty for OutcomeNone.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// Pattern is one error signature: a label for diagnostics and a
// precompiled expression matched against the whole log window.
type Pattern struct {
	Label string
	Re    *regexp.Regexp
}

// summaryRe matches a completion-marker block. The opening tag must sit
// at a line boundary (aider writes it on its own line); the body may
// span lines. The canonical tag is <summary> — older transcripts with
// <summarize> are deliberately not recognized.
var summaryRe = regexp.MustCompile(`(?ms)^<summary>(.*?)</summary>`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// DefaultPatterns returns the built-in error signatures in priority
// order. The order matters: the first pattern with at least one match
// decides the outcome, so vendor-specific signatures come before the
// generic ones that would also match them.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// litellm is aider's LLM client; its exceptions carry the most
		// actionable message (quota, auth, context length).
		{Label: "litellm", Re: regexp.MustCompile(`litellm\.[A-Za-z_][A-Za-z0-9_]*(?:Error|Exception): [^\n]+`)},
		{Label: "exception", Re: regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_.]*Exception: [^\n]+`)},
		{Label: "error", Re: regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_.]*Error: [^\n]+`)},
		// A Python traceback block: the header line plus every
		// following non-blank line.
		{Label: "traceback", Re: regexp.MustCompile(`(?m)^Traceback \(most recent call last\):(?:\n.+)*`)},
		{Label: "http-status", Re: regexp.MustCompile(`(?m)^[^\n]*\b(?:HTTP(?:/\d(?:\.\d)?)?\s+[45]\d{2}|[Ss]tatus code:?\s+[45]\d{2}|Error code:\s+[45]\d{2})\b[^\n]*$`)},
	}
}

// Classifier scans a log window for a completion marker or an error
// signature. It is stateless and safe for concurrent use.
type Classifier struct {
	patterns []Pattern
}

// NewClassifier creates a Classifier with the built-in patterns plus
// any extra user-configured ones. Extras are checked after the
// built-ins, so they extend the dialect set without overriding the
// default priorities.
func NewClassifier(extra ...Pattern) *Classifier {
	patterns := DefaultPatterns()
	patterns = append(patterns, extra...)
	return &Classifier{patterns: patterns}
}

// Classify scans suffix and reports what the invocation produced.
//
// A well-formed summary block always wins over an error signature,
// even when both appear: the block means aider itself judged the task
// complete, and a conversational log often contains errors from
// earlier attempts that the final turn recovered from. In both cases
// the LAST occurrence is taken — the log is append-only, so later
// text supersedes earlier exploratory output.
//
// Classify is a pure function of suffix.
func (c *Classifier) Classify(suffix string) Outcome {
	if suffix == "" {
		return Outcome{Kind: OutcomeNone}
	}

	if matches := summaryRe.FindAllStringSubmatch(suffix, -1); len(matches) > 0 {
		body := strings.TrimSpace(matches[len(matches)-1][1])
		return Outcome{Kind: OutcomeSummary, Text: body}
	}

	for _, p := range c.patterns {
		matches := p.Re.FindAllString(suffix, -1)
		if len(matches) == 0 {
			continue
		}
		text := whitespaceRe.ReplaceAllString(matches[len(matches)-1], " ")
		return Outcome{Kind: OutcomeError, Text: strings.TrimSpace(text)}
	}

	return Outcome{Kind: OutcomeNone}
}

package persona

import (
	"regexp"
	"strconv"
	"strings"
)

type Mode int

const (
	Casual Mode = iota
	Analysis
)

func (m Mode) String() string {
	if m == Analysis {
		return "analysis"
	}
	return "casual"
}

// Policy decides what promotes a message to Analysis mode.
type Policy int

const (
	// KeywordAndQuestion needs a regulation keyword and a question indicator.
	KeywordAndQuestion Policy = iota
	// Keyword needs a regulation keyword only.
	Keyword
)

func ParsePolicy(s string) Policy {
	if s == "keyword" {
		return Keyword
	}
	return KeywordAndQuestion
}

type Rules struct {
	Keywords        []string
	QuestionMarkers []string
	Policy          Policy
	Placeholder     string
}

type Result struct {
	Mode   Mode
	Target string
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules         Rules
	targetPattern *regexp.Regexp
}

// trailingQuestion matches interrogative endings like "？", "か", "かな", "の".
var trailingQuestion = regexp.MustCompile(`(?:[?？]|か|かな|かい|の)\s*$`)

// maxTargetPrefix bounds how far back from a keyword the target phrase may reach.
const maxTargetPrefix = 16

func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{rules: rules}
	if len(rules.Keywords) > 0 {
		alts := make([]string, 0, len(rules.Keywords))
		for _, kw := range rules.Keywords {
			if kw == "" {
				continue
			}
			alts = append(alts, regexp.QuoteMeta(kw))
		}
		if len(alts) > 0 {
			c.targetPattern = regexp.MustCompile(
				`[^\s、。，,.!?！？「」『』()（）]{0,` + strconv.Itoa(maxTargetPrefix) + `}?(?:` +
					strings.Join(alts, "|") + `)`)
		}
	}
	return c
}

// Classify is a pure function of text and the classifier's rules.
func (c *Classifier) Classify(text string) Result {
	if !c.hasKeyword(text) {
		return Result{Mode: Casual}
	}
	if c.rules.Policy == KeywordAndQuestion && !c.isQuestion(text) {
		return Result{Mode: Casual}
	}
	return Result{Mode: Analysis, Target: c.extractTarget(text)}
}

func (c *Classifier) hasKeyword(text string) bool {
	for _, kw := range c.rules.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (c *Classifier) isQuestion(text string) bool {
	for _, marker := range c.rules.QuestionMarkers {
		if marker != "" && strings.Contains(text, marker) {
			return true
		}
	}
	return trailingQuestion.MatchString(text)
}

// extractTarget returns the noun phrase that ends with the first regulation
// keyword, e.g. "AIイラストの規制" from "AIイラストの規制ってどう思う？".
func (c *Classifier) extractTarget(text string) string {
	if c.targetPattern != nil {
		if m := strings.TrimSpace(c.targetPattern.FindString(text)); m != "" {
			return m
		}
	}
	if c.rules.Placeholder != "" {
		return c.rules.Placeholder
	}
	return "この件"
}

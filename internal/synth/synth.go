// Package synth produces canned assistant replies by keyword classification.
package synth

import (
	"math/rand/v2"
	"strings"
)

// Category names a rule in the classification order.
type Category string

const (
	CategoryImageGeneration Category = "image-generation"
	CategoryImageAnalysis   Category = "image-analysis"
	CategoryGreeting        Category = "greeting"
	CategoryProgramming     Category = "programming"
	CategoryWriting         Category = "writing"
	CategoryMath            Category = "math"
	CategoryCreative        Category = "creative"
	CategoryBusiness        Category = "business"
	CategoryLearning        Category = "learning"
	CategoryProblemSolving  Category = "problem-solving"
	CategoryCapabilities    Category = "capabilities"
	CategoryContextual      Category = "contextual"
)

// Matching is plain substring search over the lowercased input, so "hi"
// also matches inside "this". That looseness is part of the behavior.
var (
	imageWords    = []string{"image", "picture", "photo"}
	generateWords = []string{"generate", "create", "make"}
	analyzeWords  = []string{"analyze", "look at", "see"}
)

type rule struct {
	category Category
	match    func(input string) bool
	replies  []string
}

func anyOf(words ...string) func(string) bool {
	return func(input string) bool { return containsAny(input, words) }
}

func containsAny(input string, words []string) bool {
	for _, w := range words {
		if strings.Contains(input, w) {
			return true
		}
	}
	return false
}

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		category: CategoryImageGeneration,
		match: func(in string) bool {
			return containsAny(in, imageWords) && containsAny(in, generateWords)
		},
		replies: []string{replyImageGeneration},
	},
	{
		category: CategoryImageAnalysis,
		match: func(in string) bool {
			return containsAny(in, imageWords) && containsAny(in, analyzeWords)
		},
		replies: []string{replyImageAnalysis},
	},
	{CategoryGreeting, anyOf("hello", "hi", "hey"), []string{replyGreeting}},
	{CategoryProgramming, anyOf("code", "programming", "javascript", "react", "python", "html", "css"), []string{replyProgramming}},
	{CategoryWriting, anyOf("write", "essay", "article", "content", "blog"), []string{replyWriting}},
	{CategoryMath, anyOf("math", "calculate", "equation", "solve"), []string{replyMath}},
	{CategoryCreative, anyOf("creative", "idea", "brainstorm", "design", "story"), []string{replyCreative}},
	{CategoryBusiness, anyOf("business", "marketing", "strategy", "professional"), []string{replyBusiness}},
	{CategoryLearning, anyOf("learn", "explain", "understand", "teach"), []string{replyLearning}},
	{CategoryProblemSolving, anyOf("problem", "issue", "challenge", "stuck"), []string{replyProblemSolving}},
	{CategoryCapabilities, anyOf("what can you do", "capabilities", "help with"), []string{replyCapabilities}},
}

// Responder is what the conversation store needs from a synthesizer.
type Responder interface {
	Reply(userText string) string
	AnalyzeImage() string
}

// Synthesizer maps user text to reply text. It is safe for concurrent use
// as long as its pick function is.
type Synthesizer struct {
	pick func(n int) int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithPicker replaces the uniform random choice among n candidates.
func WithPicker(pick func(n int) int) Option {
	return func(s *Synthesizer) { s.pick = pick }
}

// New returns a Synthesizer drawing uniformly with math/rand/v2.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{pick: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify returns the category that userText falls into.
func Classify(userText string) Category {
	input := strings.ToLower(userText)
	for _, r := range rules {
		if r.match(input) {
			return r.category
		}
	}
	return CategoryContextual
}

// Reply returns the canned reply for userText.
func (s *Synthesizer) Reply(userText string) string {
	input := strings.ToLower(userText)
	for _, r := range rules {
		if r.match(input) {
			return s.choose(r.replies)
		}
	}
	return s.choose(contextualReplies)
}

// AnalyzeImage returns one of the image-analysis acknowledgments.
func (s *Synthesizer) AnalyzeImage() string {
	return s.choose(analysisReplies)
}

func (s *Synthesizer) choose(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[s.pick(len(candidates))]
}

package keys

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// maxTypoDistance is the largest Levenshtein distance at which a word
// is still offered as a correction.
const maxTypoDistance = 2

var (
	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// normalizeMnemonic cleans pasted mnemonic input: lowercases it, strips
// numbered-list and bullet prefixes, converts commas to spaces, and
// collapses whitespace runs to single spaces.
func normalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// Typo describes a mnemonic word that is not in the BIP39 word list.
type Typo struct {
	// Index is the 0-based word position.
	Index int
	// Word is the word as entered.
	Word string
	// Suggestion is the closest list word, empty when nothing is close.
	Suggestion string
}

// suggestWord finds the closest BIP39 word by Levenshtein distance,
// or returns "" when nothing is within maxTypoDistance.
func suggestWord(input string) string {
	minDist := math.MaxInt
	var suggestion string

	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= maxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos scans a mnemonic and reports words outside the BIP39
// word list along with their closest corrections.
func DetectTypos(mnemonic string) []Typo {
	words := strings.Fields(normalizeMnemonic(mnemonic))
	valid := make(map[string]struct{}, 2048)
	for _, w := range bip39.GetWordList() {
		valid[w] = struct{}{}
	}

	var typos []Typo
	for i, word := range words {
		if _, ok := valid[word]; ok {
			continue
		}
		typos = append(typos, Typo{
			Index:      i,
			Word:       word,
			Suggestion: suggestWord(word),
		})
	}
	return typos
}

// invalidMnemonicError builds the error for a mnemonic that failed
// validation, with per-word correction hints when a typo is the likely
// cause. A wrong word count or a failed checksum gets a generic hint.
func invalidMnemonicError(mnemonic string) error {
	err := walleterr.ErrInvalidMnemonic

	words := strings.Fields(mnemonic)
	if n := len(words); n != 12 && n != 24 {
		return walleterr.WithDetails(err, map[string]string{
			"word_count": fmt.Sprintf("%d", n),
		})
	}

	typos := DetectTypos(mnemonic)
	if len(typos) == 0 {
		// All words are valid, so the checksum must be wrong.
		return walleterr.WithSuggestion(err,
			"all words are valid but the checksum failed, check the word order")
	}

	var hints []string
	for _, typo := range typos {
		if typo.Suggestion != "" {
			hints = append(hints, fmt.Sprintf("word %d: %q, did you mean %q?",
				typo.Index+1, typo.Word, typo.Suggestion))
		} else {
			hints = append(hints, fmt.Sprintf("word %d: %q is not a valid word",
				typo.Index+1, typo.Word))
		}
	}
	return walleterr.WithSuggestion(err, strings.Join(hints, "; "))
}

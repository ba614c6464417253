package metrics

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// CharErrorRate computes the character error rate of prediction lines
// against reference lines of the same length: total edit distance across
// line pairs divided by the total reference character count. ok is false
// when the rate is undefined (mismatched lengths or an empty reference).
func CharErrorRate(predictions, references []string) (float64, bool) {
	if len(predictions) != len(references) {
		return 0, false
	}
	distance, refLen := 0, 0
	for i := range references {
		distance += levenshtein.ComputeDistance(references[i], predictions[i])
		refLen += len([]rune(references[i]))
	}
	if refLen == 0 {
		return 0, false
	}
	return float64(distance) / float64(refLen), true
}

// WordErrorRate computes the word error rate over whitespace-separated
// tokens. Words are interned to single runes so the same edit distance
// kernel serves both character and word metrics.
func WordErrorRate(predictions, references []string) (float64, bool) {
	if len(predictions) != len(references) {
		return 0, false
	}
	intern := newWordInterner()
	distance, refLen := 0, 0
	for i := range references {
		refWords := strings.Fields(references[i])
		predWords := strings.Fields(predictions[i])
		distance += levenshtein.ComputeDistance(intern.encode(refWords), intern.encode(predWords))
		refLen += len(refWords)
	}
	if refLen == 0 {
		return 0, false
	}
	return float64(distance) / float64(refLen), true
}

// wordInterner maps distinct words to runes in the supplementary
// private use planes, which hold far more code points than any page of
// text has distinct words.
type wordInterner struct {
	codes map[string]rune
	next  rune
}

func newWordInterner() *wordInterner {
	return &wordInterner{codes: make(map[string]rune), next: 0xF0000}
}

func (w *wordInterner) encode(words []string) string {
	runes := make([]rune, len(words))
	for i, word := range words {
		code, ok := w.codes[word]
		if !ok {
			code = w.next
			w.codes[word] = code
			w.next++
		}
		runes[i] = code
	}
	return string(runes)
}

// Package ingest implements CorpusIngestor: turning raw Trajectories
// (and optional externally-sampled documents) into normalized,
// quality-gated CorpusContent. Cleaning uses plain strings/regexp, no
// heavyweight HTML library beyond golang.org/x/net/html.
package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// fullwidthToASCII maps the fullwidth punctuation CJK web pages commonly
// emit onto their ASCII equivalents, so downstream lexical-diversity and
// info-density scoring see the real tokens.
var fullwidthToASCII = map[rune]rune{
	'，': ',', '。': '.', '！': '!', '？': '?', '：': ':', '；': ';',
	'（': '(', '）': ')', '「': '"', '」': '"', '『': '"', '』': '"',
	'　': ' ',
}

// Clean strips HTML tags, collapses whitespace, normalizes fullwidth
// punctuation, and truncates to maxLen chars.
func Clean(raw string, maxLen int) string {
	text := stripHTML(raw)
	text = normalizeFullwidth(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen]
	}
	return text
}

// stripHTML removes markup and returns the concatenated text nodes. If
// raw contains no '<' (the common case: tool observations and
// trajectory text), it is returned unchanged without running the
// tokenizer.
func stripHTML(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(tokenizer.Text())
			sb.WriteByte(' ')
		}
	}
}

func normalizeFullwidth(s string) string {
	return strings.Map(func(r rune) rune {
		if repl, ok := fullwidthToASCII[r]; ok {
			return repl
		}
		return r
	}, s)
}

// LexicalDiversity is unique-word / total-word.
func LexicalDiversity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

var (
	numericLiteral = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	urlPattern = regexp.MustCompile(`https?://\S+`)
	emailPattern   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
)

// InfoDensitySignals counts how many of the four signal categories
// (numeric literal, proper noun, URL, email) are present in text.
func InfoDensitySignals(text string) int {
	signals := 0
	if numericLiteral.MatchString(text) {
		signals++
	}
	if urlPattern.MatchString(text) {
		signals++
	}
	if emailPattern.MatchString(text) {
		signals++
	}
	if hasProperNoun(text) {
		signals++
	}
	return signals
}

// hasProperNoun is a crude heuristic: a capitalized word not at the
// start of a sentence.
func hasProperNoun(text string) bool {
	words := strings.Fields(text)
	for i, w := range words {
		if i == 0 {
			continue
		}
		r := []rune(w)
		if len(r) == 0 {
			continue
		}
		if unicode.IsUpper(r[0]) && !strings.HasPrefix(words[i-1], ".") {
			return true
		}
	}
	return false
}

// InfoDensity approximates the original's per-1000-chars info density
// used by the content-quality score: total matched occurrences of
// numeric literals, URLs and emails, not just the present/absent count.
// Proper nouns are not counted.
func InfoDensity(text string) float64 {
	count := len(numericLiteral.FindAllString(text, -1)) +
		len(urlPattern.FindAllString(text, -1)) +
		len(emailPattern.FindAllString(text, -1))
	return float64(count)
}

// QualityGate reports whether body passes the rejection
// rule: reject when length < 50, OR diversity < 0.2 for bodies over 10
// words, OR fewer than 2 of the four info-density signals are present.
func QualityGate(body string) bool {
	if len(body) < 50 {
		return false
	}
	words := strings.Fields(body)
	if len(words) > 10 && LexicalDiversity(body) < 0.2 {
		return false
	}
	if InfoDensitySignals(body) < 2 {
		return false
	}
	return true
}

// QualityScore is the content-quality score stored in CorpusContent
// metadata.1: not used as a gate.
func QualityScore(body string) float64 {
	lengthTerm := min(float64(len(body))/1000, 1)
	diversityTerm := LexicalDiversity(body)
	densityTerm := min(InfoDensity(body)/10, 1)
	return 0.3*lengthTerm + 0.3*diversityTerm + 0.4*densityTerm
}

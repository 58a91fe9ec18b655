package ocr

import (
	"regexp"
	"strings"
)

var (
	reEmailish = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	rePhoneish = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	reWebish   = regexp.MustCompile(`(?i)\b(www\.|https?://)\S+`)
	reWordish  = regexp.MustCompile(`[A-Za-z]{3,}`)
)

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost when we see typical contact artifacts: email, phone, website
	score := float32(0.2) // base
	if reEmailish.MatchString(txt) {
		score += 0.25
	}
	if rePhoneish.MatchString(txt) {
		score += 0.2
	}
	if reWebish.MatchString(txt) {
		score += 0.1
	}
	words := reWordish.FindAllString(txt, -1)
	if len(words) >= 4 {
		score += 0.1
	} // enough content
	if noise := noiseRatio(txt); noise > 0.3 {
		score -= 0.15
	}
	if score < 0 {
		score = 0
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// noiseRatio is the share of characters that are neither letters, digits, whitespace nor
// common contact punctuation.
func noiseRatio(s string) float32 {
	if s == "" {
		return 0
	}
	var noise, total int
	for _, r := range s {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(" \n\t.,@+-()/:&'#", r):
		default:
			noise++
		}
	}
	return float32(noise) / float32(total)
}

// blend weights engine confidence over the heuristic when the engine reports one.
func blend(engine, heuristic float32) float32 {
	var conf float32
	if engine > 0 {
		conf = 0.7*engine + 0.3*heuristic
	} else {
		conf = heuristic
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

package narrative

import (
	"regexp"
	"strings"
	"unicode"
)

// Band is a qualitative percentage range.
type Band string

const (
	BandLow     Band = "low"
	BandMidLow  Band = "midLow"
	BandMidHigh Band = "midHigh"
	BandHigh    Band = "high"
)

// BandFor maps a percentage to its band: 0-24 low, 25-49 midLow, 50-74 midHigh, 75+ high.
func BandFor(percentage int) Band {
	switch {
	case percentage <= 24:
		return BandLow
	case percentage <= 49:
		return BandMidLow
	case percentage <= 74:
		return BandMidHigh
	default:
		return BandHigh
	}
}

// Level is the user-facing preference label for a percentage.
func Level(percentage int) string {
	switch BandFor(percentage) {
	case BandLow:
		return "低偏好"
	case BandMidLow:
		return "中低偏好"
	case BandMidHigh:
		return "中高偏好"
	default:
		return "高偏好"
	}
}

// ActivationLabel names an endpoint's band inside association insights.
func ActivationLabel(percentage int) string {
	switch {
	case percentage >= 75:
		return "高激活"
	case percentage >= 50:
		return "中高激活"
	case percentage >= 25:
		return "中低激活"
	default:
		return "低激活"
	}
}

// SeedIndex sums the code points of seed and reduces the sum modulo n.
func SeedIndex(seed string, n int) int {
	if n <= 0 {
		return 0
	}
	sum := 0
	for _, r := range seed {
		sum += int(r)
	}
	return sum % n
}

var (
	hedgeReplacer = strings.NewReplacer("可能会", "会", "可能", "", "也许", "", "或许", "", "大概", "")
	multiSpace    = regexp.MustCompile(`[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]{2,}`)
	doubleComma   = regexp.MustCompile(`，[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]*，`)
	repeatedStop  = regexp.MustCompile(`。{2,}`)
)

// isSpace matches Unicode spaces and the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Normalize strips hedging words and tidies whitespace and punctuation.
func Normalize(text string) string {
	text = hedgeReplacer.Replace(text)
	text = multiSpace.ReplaceAllString(text, " ")
	text = doubleComma.ReplaceAllString(text, "，")
	text = repeatedStop.ReplaceAllString(text, "。")
	return strings.TrimFunc(text, isSpace)
}

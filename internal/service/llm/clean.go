package llm

import (
	"regexp"
	"strings"
)

var (
	emphasisRe = regexp.MustCompile("[*#`]+")
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*[-•][ \t]+`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*(\d+|[IVX]+)\.[ \t]+`)
	spacesRe   = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`[ \t]*\n\s*`)
)

// Clean 去除 markdown 强调、列表标记并压缩空白
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = emphasisRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = numberedRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	s = newlinesRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

package scanner

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"
)

// syntax describes how a language marks comments.
type syntax struct {
	line  []string
	block [][2]string
}

var (
	cStyle      = syntax{line: []string{"//"}, block: [][2]string{{"/*", "*/"}}}
	hashStyle   = syntax{line: []string{"#"}}
	pythonStyle = syntax{line: []string{"#"}, block: [][2]string{{`"""`, `"""`}, {"'''", "'''"}}}
	rubyStyle   = syntax{line: []string{"#"}, block: [][2]string{{"=begin", "=end"}}}
	dashStyle   = syntax{line: []string{"--"}, block: [][2]string{{"/*", "*/"}}}
	luaStyle    = syntax{line: []string{"--"}, block: [][2]string{{"--[[", "]]"}}}
	haskell     = syntax{line: []string{"--"}, block: [][2]string{{"{-", "-}"}}}
	phpStyle    = syntax{line: []string{"//", "#"}, block: [][2]string{{"/*", "*/"}}}
)

var syntaxByExt = map[string]syntax{
	".go":    cStyle,
	".c":     cStyle,
	".h":     cStyle,
	".cc":    cStyle,
	".cpp":   cStyle,
	".hpp":   cStyle,
	".cs":    cStyle,
	".java":  cStyle,
	".kt":    cStyle,
	".scala": cStyle,
	".swift": cStyle,
	".rs":    cStyle,
	".js":    cStyle,
	".jsx":   cStyle,
	".mjs":   cStyle,
	".ts":    cStyle,
	".tsx":   cStyle,
	".dart":  cStyle,
	".php":   phpStyle,
	".py":    pythonStyle,
	".rb":    rubyStyle,
	".sh":    hashStyle,
	".bash":  hashStyle,
	".pl":    hashStyle,
	".r":     hashStyle,
	".ex":    hashStyle,
	".exs":   hashStyle,
	".sql":   dashStyle,
	".lua":   luaStyle,
	".hs":    haskell,
}

// LineCounts tallies the lines of one or more source files.
type LineCounts struct {
	Code    int `json:"code"`
	Comment int `json:"comment"`
	Blank   int `json:"blank"`
}

// Add returns the sum of c and o.
func (c LineCounts) Add(o LineCounts) LineCounts {
	return LineCounts{
		Code:    c.Code + o.Code,
		Comment: c.Comment + o.Comment,
		Blank:   c.Blank + o.Blank,
	}
}

// Ratio returns comment lines as a percentage of code lines, 0 when there
// is no code.
func (c LineCounts) Ratio() float64 {
	if c.Code == 0 {
		return 0
	}
	return float64(c.Comment) * 100 / float64(c.Code)
}

// IsSource reports whether the file extension is a recognized source language.
func IsSource(name string) bool {
	_, ok := syntaxByExt[strings.ToLower(path.Ext(name))]
	return ok
}

// CountLines classifies every line read from r as code, comment or blank
// using the comment syntax implied by name's extension. Lines that mix code
// and a trailing comment count as code. Unrecognized extensions yield zero
// counts.
func CountLines(name string, r io.Reader) (LineCounts, error) {
	syn, ok := syntaxByExt[strings.ToLower(path.Ext(name))]
	if !ok {
		return LineCounts{}, nil
	}

	var counts LineCounts
	var closing string // non-empty while inside a block comment

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if closing != "" {
			if line == "" {
				counts.Blank++
			} else {
				counts.Comment++
			}
			if strings.Contains(line, closing) {
				closing = ""
			}
			continue
		}

		if line == "" {
			counts.Blank++
			continue
		}

		if hasAnyPrefix(line, syn.line) && !opensBlock(line, syn.block) {
			counts.Comment++
			continue
		}

		if open, end, ok := blockStart(line, syn.block); ok {
			counts.Comment++
			if !strings.Contains(line[len(open):], end) {
				closing = end
			}
			continue
		}

		counts.Code++
	}
	if err := sc.Err(); err != nil {
		return counts, fmt.Errorf("reading %s: %w", name, err)
	}
	return counts, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// opensBlock catches block openers that share a prefix with a line marker,
// such as Lua's "--[[".
func opensBlock(line string, blocks [][2]string) bool {
	_, _, ok := blockStart(line, blocks)
	return ok
}

func blockStart(line string, blocks [][2]string) (open, end string, ok bool) {
	for _, b := range blocks {
		if strings.HasPrefix(line, b[0]) {
			return b[0], b[1], true
		}
	}
	return "", "", false
}

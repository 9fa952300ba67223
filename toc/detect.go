// Package toc finds one heading per page and embeds a table of contents
// into a document.
package toc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// TextRun is a run of text on a page as reported by a text extractor.
// Y grows downward. Transform is the run's text matrix; when set, its
// vertical scale multiplies FontSize.
type TextRun struct {
	Text      string     `json:"text"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	FontSize  float64    `json:"fontSize"`
	Transform [6]float64 `json:"transform"`
}

// EffectiveSize returns the rendered font size of the run.
func (r TextRun) EffectiveSize() float64 {
	t := r.Transform
	if t == ([6]float64{}) {
		return r.FontSize
	}
	scale := math.Hypot(t[2], t[3])
	if r.FontSize == 0 {
		return scale
	}
	return r.FontSize * scale
}

// Entry is one row of a table of contents. Page is 1-based. Y is the
// heading's distance from the top of its page, zero for placeholders.
type Entry struct {
	Title string  `json:"title"`
	Page  int     `json:"page"`
	Level int     `json:"level"`
	Y     float64 `json:"y"`
}

const (
	headingRatio = 0.9
	sameLine     = 5.0
)

var pageNumberLike = []*regexp.Regexp{
	regexp.MustCompile(`^\d+[.)]?\s*$`),
	regexp.MustCompile(`^p\.?\d+$`),
}

func isPageNumber(s string) bool {
	for _, re := range pageNumberLike {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// PlaceholderTitle names a page that has no heading.
func PlaceholderTitle(page int) string { return fmt.Sprintf("Page %d", page) }

// DetectHeadings returns one entry per page. pages[i] holds the runs of
// page i+1.
func DetectHeadings(pages [][]TextRun) []Entry {
	out := make([]Entry, len(pages))
	for i, runs := range pages {
		title, y := pageHeading(runs)
		if title == "" {
			title, y = PlaceholderTitle(i+1), 0
		}
		out[i] = Entry{Title: title, Page: i + 1, Level: 1, Y: y}
	}
	return out
}

type candidate struct {
	runs []TextRun
	size float64
	y    float64
}

func (c candidate) text() string {
	runs := append([]TextRun(nil), c.runs...)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		parts = append(parts, strings.TrimSpace(r.Text))
	}
	return strings.Join(parts, " ")
}

func pageHeading(runs []TextRun) (string, float64) {
	var maxSize float64
	for _, r := range runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		maxSize = math.Max(maxSize, r.EffectiveSize())
	}
	if maxSize <= 0 {
		return "", 0
	}

	var cands []candidate
	for _, r := range runs {
		text := strings.TrimSpace(r.Text)
		size := r.EffectiveSize()
		if text == "" || size < maxSize*headingRatio || isPageNumber(text) {
			continue
		}
		merged := false
		for i := range cands {
			if math.Abs(cands[i].y-r.Y) < sameLine {
				cands[i].runs = append(cands[i].runs, r)
				cands[i].size = math.Max(cands[i].size, size)
				cands[i].y = math.Min(cands[i].y, r.Y)
				merged = true
				break
			}
		}
		if !merged {
			cands = append(cands, candidate{runs: []TextRun{r}, size: size, y: r.Y})
		}
	}
	if len(cands) == 0 {
		return "", 0
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].size != cands[j].size {
			return cands[i].size > cands[j].size
		}
		return cands[i].y < cands[j].y
	})
	return cands[0].text(), cands[0].y
}

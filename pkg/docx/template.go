// Package docx fills Word templates that use {{ key }} placeholders.
package docx

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gitee.com/gooffice/gooffice/common"
	"gitee.com/gooffice/gooffice/document"
	"gitee.com/gooffice/gooffice/measurement"
)

var placeholder = regexp.MustCompile(`\{\{\s*([\p{L}\p{N}_.]+)\s*\}\}`)

// Value is what a placeholder is replaced with: Text or InlineImage.
type Value interface {
	value()
}

type Text string

func (Text) value() {}

// InlineImage places a picture in the text flow, scaled to WidthMM with its
// aspect ratio kept.
type InlineImage struct {
	Path    string
	WidthMM float64
}

func (InlineImage) value() {}

type Context map[string]Value

type Template struct {
	doc     *document.Document
	missing map[string]struct{}
}

func Open(path string) (*Template, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", path, err)
	}
	return &Template{doc: doc, missing: map[string]struct{}{}}, nil
}

// body lists the paragraphs of the document body followed by those of its
// tables.
func (t *Template) body() []document.Paragraph {
	paragraphs := t.doc.Paragraphs()
	for _, table := range t.doc.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				paragraphs = append(paragraphs, cell.Paragraphs()...)
			}
		}
	}
	return paragraphs
}

// imageAdder registers a picture with the part that will display it.
type imageAdder func(common.Image) (common.ImageRef, error)

// Render replaces every placeholder of the body, its tables, headers and
// footers. Keys absent from ctx render empty and are reported by Missing.
func (t *Template) Render(ctx Context) error {
	for _, p := range t.body() {
		if err := t.renderParagraph(p, ctx, t.doc.AddImage); err != nil {
			return err
		}
	}

	for _, h := range t.doc.Headers() {
		for _, p := range h.Paragraphs() {
			if err := t.renderParagraph(p, ctx, h.AddImage); err != nil {
				return err
			}
		}
	}
	for _, f := range t.doc.Footers() {
		for _, p := range f.Paragraphs() {
			if err := t.renderParagraph(p, ctx, f.AddImage); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderParagraph matches placeholders on the joined text of all runs, since
// Word splits text into runs at arbitrary points. Only the runs a placeholder
// overlaps are rewritten: the run holding its opening braces receives the
// value and the runs it continues into keep the text outside of it. Other
// runs, with their drawings and tabs, are left alone.
func (t *Template) renderParagraph(p document.Paragraph, ctx Context, addImage imageAdder) error {
	runs := p.Runs()
	if len(runs) == 0 {
		return nil
	}

	bounds := make([]int, len(runs)+1)
	var sb strings.Builder
	for i, r := range runs {
		sb.WriteString(r.Text())
		bounds[i+1] = sb.Len()
	}
	text := sb.String()

	matches := placeholder.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return nil
	}

	for i, run := range runs {
		start, end := bounds[i], bounds[i+1]

		var spanned [][]int
		for _, m := range matches {
			if m[0] < end && m[1] > start {
				spanned = append(spanned, m)
			}
		}
		if spanned == nil {
			continue
		}

		run.ClearContent()
		last := start
		for _, m := range spanned {
			if m[0] > last {
				addText(run, text[last:m[0]])
			}
			last = min(m[1], end)
			if m[0] < start {
				continue
			}

			key := text[m[2]:m[3]]
			switch v := ctx[key].(type) {
			case Text:
				addText(run, string(v))
			case InlineImage:
				if err := addInlineImage(run, v, addImage); err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
			case nil:
				t.missing[key] = struct{}{}
			}
		}
		if last < end {
			addText(run, text[last:end])
		}
	}
	return nil
}

// addText writes s to run, turning tab characters back into tab elements.
func addText(run document.Run, s string) {
	for i, part := range strings.Split(s, "\t") {
		if i > 0 {
			run.AddTab()
		}
		if part != "" {
			run.AddText(part)
		}
	}
}

func addInlineImage(run document.Run, v InlineImage, addImage imageAdder) error {
	img, err := common.ImageFromFile(v.Path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", v.Path, err)
	}
	ref, err := addImage(img)
	if err != nil {
		return err
	}
	inline, err := run.AddDrawingInline(ref)
	if err != nil {
		return err
	}

	if v.WidthMM > 0 && img.Size.X > 0 {
		width := measurement.Distance(v.WidthMM) * measurement.Millimeter
		height := width * measurement.Distance(img.Size.Y) / measurement.Distance(img.Size.X)
		inline.SetSize(width, height)
	}
	return nil
}

// Missing lists the placeholders Render found no value for.
func (t *Template) Missing() []string {
	keys := make([]string, 0, len(t.missing))
	for k := range t.missing {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Text returns the body text, one line per paragraph.
func (t *Template) Text() string {
	var lines []string
	for _, p := range t.body() {
		var sb strings.Builder
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

func (t *Template) Save(path string) error {
	return t.doc.SaveToFile(path)
}

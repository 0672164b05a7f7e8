package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Markdown flattens an HTML document into markdown text: headings, paragraphs, lists,
// links and emphasis survive, styling does not.
func Markdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	writeNodes(&b, doc.Find("body").Contents())
	return tidy(b.String()), nil
}

// TextHTML renders the markdown flattening of html back into simple HTML for the
// textual mail part.
func TextHTML(html string) (string, error) {
	md, err := Markdown(html)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func writeNodes(b *strings.Builder, nodes *goquery.Selection) {
	nodes.Each(func(_ int, s *goquery.Selection) {
		writeNode(b, s)
	})
}

func writeNode(b *strings.Builder, s *goquery.Selection) {
	switch name := goquery.NodeName(s); name {
	case "#text":
		b.WriteString(collapse(s.Text()))
	case "script", "style", "head", "img", "#comment":
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(name[1] - '0')
		b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		b.WriteString(strings.TrimSpace(inline(s)))
		b.WriteString("\n\n")
	case "p", "div", "section", "ul", "ol":
		b.WriteString("\n\n")
		writeNodes(b, s.Contents())
		b.WriteString("\n\n")
	case "li":
		b.WriteString("\n* ")
		b.WriteString(strings.TrimSpace(inline(s)))
	case "br":
		b.WriteString("  \n")
	case "hr":
		b.WriteString("\n\n---\n\n")
	case "a":
		text := strings.TrimSpace(inline(s))
		href, ok := s.Attr("href")
		if !ok || href == "" {
			b.WriteString(text)
			return
		}
		fmt.Fprintf(b, "[%s](%s)", text, href)
	case "strong", "b":
		b.WriteString("**" + strings.TrimSpace(inline(s)) + "**")
	case "em", "i":
		b.WriteString("_" + strings.TrimSpace(inline(s)) + "_")
	default:
		writeNodes(b, s.Contents())
	}
}

func inline(s *goquery.Selection) string {
	var b strings.Builder
	writeNodes(&b, s.Contents())
	return b.String()
}

func collapse(text string) string {
	if text == "" {
		return ""
	}
	body := strings.Join(strings.Fields(text), " ")
	if body == "" {
		return " "
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	if unicode.IsSpace(first) {
		body = " " + body
	}
	if unicode.IsSpace(last) {
		body += " "
	}
	return body
}

func tidy(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		if strings.HasSuffix(line, "  ") && strings.TrimSpace(line) != "" {
			lines[i] = strings.TrimLeft(line, " ")
			continue
		}
		lines[i] = strings.TrimSpace(line)
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out) + "\n"
}

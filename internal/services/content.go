package services

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown   = goldmark.New(goldmark.WithExtensions(extension.GFM))
	bodyPolicy = newBodyPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

func newBodyPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// RenderMarkdown converts a markdown body to sanitized HTML.
func RenderMarkdown(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return bodyPolicy.Sanitize(body)
	}
	return strings.TrimSpace(bodyPolicy.Sanitize(buf.String()))
}

// SanitizeText strips all markup from user supplied text and returns it unescaped.
func SanitizeText(text string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(text)))
}

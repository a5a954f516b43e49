package entity

import (
	"strings"
)

// Validate checks the required article fields and normalizes the link.
// It is called on every record coming off the wire; a failure means the
// record is skipped, so the error carries the offending field.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.UUID) == "" {
		return &ValidationError{Field: "uuid", Message: "missing stable identifier"}
	}
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "missing title"}
	}
	if strings.TrimSpace(a.Link) == "" {
		return &ValidationError{Field: "link", Message: "missing link"}
	}
	a.Link = NormalizeLink(a.Link)
	for i, t := range a.RelatedTickers {
		a.RelatedTickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return nil
}

// NormalizeLink rewrites an article link so it always begins with https://.
// Persisted rows rely on this invariant.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	switch {
	case strings.HasPrefix(link, "https://"):
		return link
	case strings.HasPrefix(link, "http://"):
		return "https://" + strings.TrimPrefix(link, "http://")
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	default:
		return "https://" + link
	}
}

// ParseRelatedTickers accepts the relatedTickers value as it appears in the
// source JSON: a list of strings, a comma separated string, or absent.
// Symbols are trimmed and upper-cased; a missing value yields an empty list.
func ParseRelatedTickers(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.ToUpper(strings.TrimSpace(s)))
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(vv))
		for _, s := range vv {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.ToUpper(strings.TrimSpace(s)))
			}
		}
		return out
	case string:
		parts := strings.Split(vv, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				out = append(out, strings.ToUpper(strings.TrimSpace(p)))
			}
		}
		return out
	default:
		return []string{}
	}
}

// ParseThumbnails normalizes the thumbnail value from the source JSON.
// The expected shape is {"resolutions": [{url,width,height,tag}, ...]};
// a string or any other shape is treated as missing.
func ParseThumbnails(v any) []Thumbnail {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	resolutions, ok := obj["resolutions"].([]any)
	if !ok {
		return nil
	}
	out := make([]Thumbnail, 0, len(resolutions))
	for _, r := range resolutions {
		res, ok := r.(map[string]any)
		if !ok {
			continue
		}
		thumb := Thumbnail{}
		if s, ok := res["url"].(string); ok {
			thumb.URL = s
		}
		if f, ok := res["width"].(float64); ok {
			thumb.Width = int(f)
		}
		if f, ok := res["height"].(float64); ok {
			thumb.Height = int(f)
		}
		if s, ok := res["tag"].(string); ok {
			thumb.Tag = s
		}
		if thumb.URL != "" {
			out = append(out, thumb)
		}
	}
	return out
}

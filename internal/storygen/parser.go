package storygen

import "strings"

// Story is the parsed result of a model completion
type Story struct {
	Title       string
	Description string
	Body        string
}

// ParseStory extracts title, description, and body from raw model output.
// The scan is lenient and never fails: missing markers degrade to defaults
// (title "Untitled Story", empty description, body = the whole trimmed text)
// rather than rejecting the completion.
func ParseStory(raw string) Story {
	text := strings.TrimSpace(raw)
	story := Story{Title: DefaultTitle, Body: text}

	titleIdx := strings.Index(text, titleMarker)
	if titleIdx < 0 {
		// No contract markers at all. Treat everything as the body.
		return story
	}

	afterTitle := text[titleIdx+len(titleMarker):]
	if t := strings.TrimSpace(firstLine(afterTitle)); t != "" {
		story.Title = t
	}

	afterDesc := ""
	descIdx := strings.Index(afterTitle, descriptionMarker)
	if descIdx >= 0 {
		afterDesc = afterTitle[descIdx+len(descriptionMarker):]
		story.Description = strings.TrimSpace(firstLine(afterDesc))
	}

	if storyIdx := strings.Index(text, storyMarker); storyIdx >= 0 {
		story.Body = strings.TrimSpace(text[storyIdx+len(storyMarker):])
		return story
	}

	// TITLE: present but STORY: missing. The body is whatever follows the
	// last header line we recognized.
	tail := afterTitle
	if descIdx >= 0 {
		tail = afterDesc
	}
	if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
		story.Body = strings.TrimSpace(tail[nl+1:])
	} else {
		story.Body = ""
	}
	return story
}

func firstLine(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		return s[:nl]
	}
	return s
}

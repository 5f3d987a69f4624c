package services

import (
	"fmt"
	"strings"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// maxContactNames bounds how many contact names a synthetic contact
// citation lists before it falls back to the bare count.
const maxContactNames = 3

// toolInvocation is one executed tool call, recorded during a turn so
// citations can be derived after the final answer streams.
type toolInvocation struct {
	Tool    string
	Payload string
}

// extractCitations derives the source references for one turn from its
// executed tool calls. Document hits cite page titles, email hits cite
// subject and sender, and contact fetches collapse into one synthetic
// citation. Error payloads and malformed payloads contribute nothing.
// The result is deduplicated by (tool, title) in first-seen order.
func extractCitations(invocations []toolInvocation) []domain.Citation {
	out := make([]domain.Citation, 0, len(invocations))
	type key struct{ tool, title string }
	seen := make(map[key]struct{})

	add := func(c domain.Citation) {
		if c.Title == "" {
			return
		}
		k := key{tool: c.Tool, title: c.Title}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	for _, inv := range invocations {
		switch result := domain.ParseToolResult(inv.Tool, inv.Payload).(type) {
		case domain.DocumentHits:
			for _, hit := range result.Results {
				add(domain.Citation{Tool: inv.Tool, Title: hit.Title})
			}
		case domain.EmailHits:
			for _, hit := range result.Results {
				c := domain.Citation{Tool: inv.Tool, Title: hit.Subject}
				if hit.Sender != "" {
					c.Subtitle = "From: " + hit.Sender
				}
				add(c)
			}
		case domain.ContactHits:
			if result.Count > 0 {
				add(contactCitation(inv.Tool, result))
			}
		}
	}
	return out
}

// contactCitation summarizes a contact fetch as a single reference,
// naming at most maxContactNames contacts.
func contactCitation(tool string, hits domain.ContactHits) domain.Citation {
	title := fmt.Sprintf("%d contacts", hits.Count)
	if hits.Count == 1 {
		title = "1 contact"
	}

	names := make([]string, 0, maxContactNames)
	for _, contact := range hits.Contacts {
		if contact.Name == "" {
			continue
		}
		names = append(names, contact.Name)
		if len(names) == maxContactNames {
			break
		}
	}

	c := domain.Citation{Tool: tool, Title: title}
	if len(names) > 0 {
		c.Subtitle = strings.Join(names, ", ")
	}
	return c
}

package account

import (
	"fmt"

	"github.com/google/uuid"
)

// Link is a HATEOAS navigation link attached to API responses.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Action string `json:"action"`
	Type   string `json:"type"`
}

func newLink(rel, href, action string) Link {
	return Link{Rel: rel, Href: href, Action: action, Type: "application/json"}
}

// accountLinks returns the action links for one account resource.
func accountLinks(baseURL string, id uuid.UUID) []Link {
	self := fmt.Sprintf("%s/users/%s", baseURL, id)
	return []Link{
		newLink("self", self, "GET"),
		newLink("update", self, "PUT"),
		newLink("delete", self, "DELETE"),
	}
}

// paginationLinks builds self/first/last and, when applicable, next/prev
// links for an offset-paginated listing.
func paginationLinks(baseURL string, skip, limit int, total int64) []Link {
	page := func(skip int) string {
		return fmt.Sprintf("%s/users/?skip=%d&limit=%d", baseURL, skip, limit)
	}
	lastSkip := 0
	if total > 0 {
		lastSkip = int((total - 1) / int64(limit)) * limit
	}
	links := []Link{
		newLink("self", page(skip), "GET"),
		newLink("first", page(0), "GET"),
		newLink("last", page(lastSkip), "GET"),
	}
	if int64(skip+limit) < total {
		links = append(links, newLink("next", page(skip+limit), "GET"))
	}
	if skip > 0 {
		prev := skip - limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, newLink("prev", page(prev), "GET"))
	}
	return links
}

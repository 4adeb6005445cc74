package account

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func linkByRel(links []Link, rel string) (Link, bool) {
	for _, l := range links {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}

func TestAccountLinks(t *testing.T) {
	id := uuid.MustParse("c7a1d0de-0000-4000-8000-000000000001")
	links := accountLinks("http://api.test", id)
	if len(links) != 3 {
		t.Fatalf("got %d links, want 3", len(links))
	}
	want := map[string]string{"self": "GET", "update": "PUT", "delete": "DELETE"}
	for rel, action := range want {
		l, ok := linkByRel(links, rel)
		if !ok {
			t.Fatalf("missing %q link", rel)
		}
		if l.Action != action {
			t.Errorf("%s action = %s, want %s", rel, l.Action, action)
		}
		if l.Href != "http://api.test/users/"+id.String() {
			t.Errorf("%s href = %s", rel, l.Href)
		}
	}
}

func TestPaginationLinks(t *testing.T) {
	cases := []struct {
		name       string
		skip, lim  int
		total      int64
		wantNext   string
		wantPrev   string
		wantLast   string
	}{
		{"first page of many", 0, 10, 35, "skip=10", "", "skip=30"},
		{"middle page", 10, 10, 35, "skip=20", "skip=0", "skip=30"},
		{"last page", 30, 10, 35, "", "skip=20", "skip=30"},
		{"single page", 0, 10, 5, "", "", "skip=0"},
		{"empty listing", 0, 10, 0, "", "", "skip=0"},
		{"prev clamps to zero", 5, 10, 35, "skip=15", "skip=0", "skip=30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := paginationLinks("http://api.test", tc.skip, tc.lim, tc.total)
			for _, rel := range []string{"self", "first", "last"} {
				if _, ok := linkByRel(links, rel); !ok {
					t.Fatalf("missing %q link", rel)
				}
			}
			last, _ := linkByRel(links, "last")
			if !strings.Contains(last.Href, tc.wantLast) {
				t.Errorf("last href = %s, want it to contain %s", last.Href, tc.wantLast)
			}
			next, hasNext := linkByRel(links, "next")
			if tc.wantNext == "" {
				if hasNext {
					t.Errorf("unexpected next link %s", next.Href)
				}
			} else if !hasNext || !strings.Contains(next.Href, tc.wantNext) {
				t.Errorf("next = %v, want href containing %s", next, tc.wantNext)
			}
			prev, hasPrev := linkByRel(links, "prev")
			if tc.wantPrev == "" {
				if hasPrev {
					t.Errorf("unexpected prev link %s", prev.Href)
				}
			} else if !hasPrev || !strings.Contains(prev.Href, tc.wantPrev) {
				t.Errorf("prev = %v, want href containing %s", prev, tc.wantPrev)
			}
		})
	}
}

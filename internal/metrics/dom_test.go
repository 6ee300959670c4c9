package metrics

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestAuditDOM_Accessibility(t *testing.T) {
	// WHAT: Missing alt text, unlabeled inputs, lang, and h1 count are all
	// collected in one walk.
	// WHY: These signals feed the accessibility score.
	doc := parse(t, `<html lang="en"><head><title> Shop </title></head><body>
		<h1>One</h1>
		<img src="a.png" alt="logo"><img src="b.png"><img src="c.png" alt="  ">
		<label for="email">Email</label><input id="email" type="text">
		<input type="text" name="orphan">
		<input type="search" aria-label="Search">
		<input type="hidden" name="csrf">
		<input type="submit" value="Go">
	</body></html>`)

	a := auditDOM(doc, "https://example.com")
	if !a.HasLang {
		t.Error("lang attribute not detected")
	}
	if a.Title != "Shop" {
		t.Errorf("title = %q, want trimmed Shop", a.Title)
	}
	if a.H1Count != 1 {
		t.Errorf("h1Count = %d, want 1", a.H1Count)
	}
	if a.Images != 3 || a.ImagesMissingAlt != 2 {
		t.Errorf("images = %d missing alt = %d, want 3/2", a.Images, a.ImagesMissingAlt)
	}
	if a.InputsUnlabeled != 1 {
		t.Errorf("inputsUnlabeled = %d, want 1 (the orphan)", a.InputsUnlabeled)
	}
}

func TestAuditDOM_LabelAfterControl(t *testing.T) {
	// WHAT: A label appearing after its control still counts.
	// WHY: Association is by id, not document order.
	doc := parse(t, `<html><body>
		<input id="late" type="text">
		<label for="late">Late</label>
	</body></html>`)
	if a := auditDOM(doc, "https://x.test"); a.InputsUnlabeled != 0 {
		t.Errorf("inputsUnlabeled = %d, want 0", a.InputsUnlabeled)
	}
}

func TestAuditDOM_ViewportMeta(t *testing.T) {
	// WHAT: The viewport meta tag and fixed-width variants are detected.
	// WHY: These are the load-bearing mobile usability signals.
	cases := []struct {
		name       string
		src        string
		viewport   bool
		fixedWidth bool
	}{
		{"responsive", `<meta name="viewport" content="width=device-width, initial-scale=1">`, true, false},
		{"fixed", `<meta name="viewport" content="width=1024">`, true, true},
		{"absent", `<meta name="description" content="x">`, false, false},
	}
	for _, tc := range cases {
		doc := parse(t, "<html><head>"+tc.src+"</head><body></body></html>")
		a := auditDOM(doc, "https://x.test")
		if a.ViewportMeta != tc.viewport || a.FixedWidthMeta != tc.fixedWidth {
			t.Errorf("%s: viewport=%v fixed=%v, want %v/%v",
				tc.name, a.ViewportMeta, a.FixedWidthMeta, tc.viewport, tc.fixedWidth)
		}
	}
}

func TestAuditDOM_MixedContent(t *testing.T) {
	// WHAT: http:// references on an https page are counted, https and
	// relative ones are not.
	// WHY: Mixed content drives the security score down.
	doc := parse(t, `<html><body>
		<img src="http://cdn.example.com/a.png">
		<script src="HTTP://cdn.example.com/b.js"></script>
		<img src="https://cdn.example.com/ok.png">
		<img src="/relative.png">
		<form action="http://example.com/login"></form>
	</body></html>`)

	a := auditDOM(doc, "https://example.com")
	if !a.HTTPS {
		t.Error("https page not detected")
	}
	if a.InsecureRefs != 2 {
		t.Errorf("insecureRefs = %d, want 2", a.InsecureRefs)
	}
	if a.InsecureForms != 1 {
		t.Errorf("insecureForms = %d, want 1", a.InsecureForms)
	}
}

func TestAuditDOM_PlainHTTP(t *testing.T) {
	// WHAT: A plain-http final URL reports HTTPS=false.
	// WHY: Delivery scheme is read from the final URL, after redirects.
	doc := parse(t, `<html><body></body></html>`)
	if a := auditDOM(doc, "http://example.com"); a.HTTPS {
		t.Error("plain http reported as https")
	}
}

func TestAuditDOM_TapTargets(t *testing.T) {
	// WHAT: Links and buttons count as tap targets.
	// WHY: Raw tap-target volume is carried for report detail views.
	doc := parse(t, `<html><body>
		<a href="/a">a</a><a href="/b">b</a><button>go</button>
	</body></html>`)
	if a := auditDOM(doc, "https://x.test"); a.TapTargets != 3 {
		t.Errorf("tapTargets = %d, want 3", a.TapTargets)
	}
}

package metrics

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DOMAudit is the structural audit of a rendered page.
type DOMAudit struct {
	Title            string
	HasLang          bool
	H1Count          int
	Images           int
	ImagesMissingAlt int
	InputsUnlabeled  int
	TapTargets       int
	ViewportMeta     bool
	FixedWidthMeta   bool
	HTTPS            bool
	InsecureRefs     int
	InsecureForms    int
}

// auditDOM walks the parsed document once and collects every structural
// signal the scorers need. pageURL is the final document URL, used for the
// https and mixed-content checks.
func auditDOM(doc *html.Node, pageURL string) DOMAudit {
	a := DOMAudit{HTTPS: strings.HasPrefix(strings.ToLower(pageURL), "https://")}

	labeledIDs := make(map[string]bool)
	var unlabeledCandidates []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				if getAttr(n, "lang") != "" {
					a.HasLang = true
				}
			case atom.Title:
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					a.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.H1:
				a.H1Count++
			case atom.Img:
				a.Images++
				if strings.TrimSpace(getAttr(n, "alt")) == "" {
					a.ImagesMissingAlt++
				}
				if isInsecureRef(getAttr(n, "src")) {
					a.InsecureRefs++
				}
			case atom.Script, atom.Iframe, atom.Audio, atom.Video, atom.Source:
				if isInsecureRef(getAttr(n, "src")) {
					a.InsecureRefs++
				}
			case atom.Link:
				if isInsecureRef(getAttr(n, "href")) {
					a.InsecureRefs++
				}
			case atom.Meta:
				if strings.EqualFold(getAttr(n, "name"), "viewport") {
					a.ViewportMeta = true
					content := strings.ToLower(getAttr(n, "content"))
					if strings.Contains(content, "width=") && !strings.Contains(content, "width=device-width") {
						a.FixedWidthMeta = true
					}
				}
			case atom.A, atom.Button:
				a.TapTargets++
			case atom.Form:
				if isInsecureRef(getAttr(n, "action")) {
					a.InsecureForms++
				}
			case atom.Label:
				if id := getAttr(n, "for"); id != "" {
					labeledIDs[id] = true
				}
			case atom.Input, atom.Select, atom.Textarea:
				if needsLabel(n) {
					unlabeledCandidates = append(unlabeledCandidates, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Label associations can appear after the control; resolve at the end.
	for _, n := range unlabeledCandidates {
		if !labeledIDs[getAttr(n, "id")] {
			a.InputsUnlabeled++
		}
	}
	return a
}

// needsLabel reports whether a form control should carry a label or an
// aria-label.
func needsLabel(n *html.Node) bool {
	if n.DataAtom == atom.Input {
		switch strings.ToLower(getAttr(n, "type")) {
		case "hidden", "submit", "button", "reset", "image":
			return false
		}
	}
	if getAttr(n, "aria-label") != "" || getAttr(n, "aria-labelledby") != "" {
		return false
	}
	if getAttr(n, "title") != "" {
		return false
	}
	return true
}

func isInsecureRef(ref string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "http://")
}

// getAttr returns the value of an attribute on a node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

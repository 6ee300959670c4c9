package metrics

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Font is one detected font family and where it came from.
type Font struct {
	Family string
	Type   string // "google" or "web"
	Source string // link | import | css
}

var (
	googleImportPattern = regexp.MustCompile(`@import\s+url\(['"]?([^'")]*fonts\.googleapis\.com[^'")]*)['"]?\)`)
	familyParamPattern  = regexp.MustCompile(`family=([^&]*)`)
	fontFamilyPattern   = regexp.MustCompile(`(?i)font-family\s*:\s*([^;}]+)`)
)

// Families commonly served from Google Fonts; used to classify bare
// font-family declarations.
var googleFontFamilies = []string{
	"Roboto", "Open Sans", "Lato", "Montserrat", "Source Sans Pro",
	"Raleway", "Poppins", "Oswald", "Nunito", "Ubuntu", "Mulish",
	"Inter", "Playfair Display", "Merriweather", "PT Sans",
}

var genericFamilies = map[string]bool{
	"serif": true, "sans-serif": true, "monospace": true,
	"cursive": true, "fantasy": true, "system-ui": true, "inherit": true,
}

// detectFonts finds font families referenced by the document: Google Fonts
// link tags, @import of fonts.googleapis.com, font-family declarations in
// inline styles, and declarations in stylesheetCSS, the rule text of the
// document's loaded stylesheets (external sheets included). Deduplicated by
// family+type, in first-seen order.
func detectFonts(doc *html.Node, stylesheetCSS string) []Font {
	var fonts []Font

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Link:
				if href := getAttr(n, "href"); strings.Contains(href, "fonts.googleapis.com") {
					fonts = append(fonts, googleFamiliesFromURL(href, "link")...)
				}
			case atom.Style:
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					fonts = append(fonts, fontsFromCSS(n.FirstChild.Data)...)
				}
			}
			if style := getAttr(n, "style"); style != "" {
				fonts = append(fonts, declaredFamilies(style)...)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if stylesheetCSS != "" {
		fonts = append(fonts, fontsFromCSS(stylesheetCSS)...)
	}
	return dedupeFonts(fonts)
}

// fontsFromCSS extracts fonts from a CSS block: Google Fonts @import
// statements first, then font-family declarations.
func fontsFromCSS(css string) []Font {
	var fonts []Font
	for _, m := range googleImportPattern.FindAllStringSubmatch(css, -1) {
		fonts = append(fonts, googleFamiliesFromURL(m[1], "import")...)
	}
	fonts = append(fonts, declaredFamilies(css)...)
	return fonts
}

// googleFamiliesFromURL parses the family= parameter of a Google Fonts URL.
// Families are +-encoded and |-separated, with optional :weight suffixes.
func googleFamiliesFromURL(fontURL, source string) []Font {
	m := familyParamPattern.FindStringSubmatch(fontURL)
	if m == nil {
		return nil
	}
	var fonts []Font
	for _, family := range strings.Split(strings.ReplaceAll(m[1], "+", " "), "|") {
		family = strings.SplitN(family, ":", 2)[0]
		if family = strings.TrimSpace(family); family != "" {
			fonts = append(fonts, Font{Family: family, Type: "google", Source: source})
		}
	}
	return fonts
}

// declaredFamilies extracts families from font-family declarations,
// dropping CSS generic families.
func declaredFamilies(css string) []Font {
	var fonts []Font
	for _, decl := range fontFamilyPattern.FindAllStringSubmatch(css, -1) {
		for _, family := range strings.Split(decl[1], ",") {
			family = strings.Trim(strings.TrimSpace(family), `'"`)
			if family == "" || genericFamilies[strings.ToLower(family)] {
				continue
			}
			fonts = append(fonts, Font{Family: family, Type: classifyFamily(family), Source: "css"})
		}
	}
	return fonts
}

func classifyFamily(family string) string {
	lower := strings.ToLower(family)
	for _, g := range googleFontFamilies {
		if strings.Contains(lower, strings.ToLower(g)) {
			return "google"
		}
	}
	return "web"
}

func dedupeFonts(fonts []Font) []Font {
	seen := make(map[string]bool, len(fonts))
	out := fonts[:0]
	for _, f := range fonts {
		key := f.Family + "-" + f.Type
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func countGoogleFonts(fonts []Font) int {
	n := 0
	for _, f := range fonts {
		if f.Type == "google" {
			n++
		}
	}
	return n
}

// joinFamilies renders a sorted, comma-separated family list for report
// detail views.
func joinFamilies(fonts []Font) string {
	names := make([]string, len(fonts))
	for i, f := range fonts {
		names[i] = f.Family
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Package pagexml handles the PAGE XML page-description documents the
// platform exchanges as transcript content. The schema is treated as
// opaque except for the pieces batch runs rely on: text regions, their
// type label inside the custom attribute, and per-line text content.
package pagexml

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// TextRegion is one labeled region of a page with its non-empty text
// lines in reading order.
type TextRegion struct {
	ID    string
	Type  string // empty when the custom attribute carries no type label
	Lines []string
}

// PageFile is a parsed page-description document.
type PageFile struct {
	regions []TextRegion
}

// typeLabelRe extracts the type label from a region's custom attribute,
// which encodes it as "type:<label>;" among other key/value pairs.
var typeLabelRe = regexp.MustCompile(`type:([a-z]+);`)

// Element local names are matched without the namespace: the PAGE
// namespace URI embeds a schema date that varies between exports.
type pcGts struct {
	XMLName xml.Name `xml:"PcGts"`
	Page    pageElem `xml:"Page"`
}

type pageElem struct {
	TextRegions []textRegionElem `xml:"TextRegion"`
}

type textRegionElem struct {
	ID        string         `xml:"id,attr"`
	Custom    string         `xml:"custom,attr"`
	TextLines []textLineElem `xml:"TextLine"`
	// TextEquiv directly under TextRegion holds the whole-region text;
	// it is not a line and stays out of the extraction.
	TextEquiv textEquivElem `xml:"TextEquiv"`
}

type textLineElem struct {
	TextEquiv textEquivElem `xml:"TextEquiv"`
}

type textEquivElem struct {
	Unicode string `xml:"Unicode"`
}

// Parse reads a page-description document and extracts its text regions.
// Regions without any non-empty line are dropped.
func Parse(data []byte) (*PageFile, error) {
	var doc pcGts
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse page xml: %w", err)
	}

	var regions []TextRegion
	for _, tr := range doc.Page.TextRegions {
		region := TextRegion{ID: tr.ID}
		if m := typeLabelRe.FindStringSubmatch(tr.Custom); m != nil {
			region.Type = m[1]
		}
		for _, line := range tr.TextLines {
			if line.TextEquiv.Unicode == "" {
				continue
			}
			region.Lines = append(region.Lines, line.TextEquiv.Unicode)
		}
		if len(region.Lines) == 0 {
			continue
		}
		regions = append(regions, region)
	}
	return &PageFile{regions: regions}, nil
}

// Regions returns the page's text regions, optionally filtered by a set
// of accepted type labels. With no filter, all regions are returned.
func (p *PageFile) Regions(types ...string) []TextRegion {
	if len(types) == 0 {
		return p.regions
	}
	var filtered []TextRegion
	for _, r := range p.regions {
		for _, t := range types {
			if r.Type == t {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered
}

// unicodeElemRe matches the text content of Unicode elements in a raw
// document for in-place edits.
var unicodeElemRe = regexp.MustCompile(`<Unicode>([^<]*)</Unicode>`)

// ReplaceInText replaces old with new inside the Unicode elements of a
// raw page-description document, leaving every other byte untouched so
// the edited document can be uploaded as a new version. It returns the
// edited document and the number of replacements.
func ReplaceInText(doc, old, new string) (string, int) {
	if old == "" {
		return doc, 0
	}
	const openTag, closeTag = "<Unicode>", "</Unicode>"
	total := 0
	edited := unicodeElemRe.ReplaceAllStringFunc(doc, func(elem string) string {
		inner := elem[len(openTag) : len(elem)-len(closeTag)]
		n := strings.Count(inner, old)
		if n == 0 {
			return elem
		}
		total += n
		return openTag + strings.ReplaceAll(inner, old, new) + closeTag
	})
	return edited, total
}

// ABOUTME: Lenient XML discovery for feeds gofeed rejects and for sitemaps
// ABOUTME: Reads item>link, entry>link[href], urlset>url>loc and sitemapindex>sitemap>loc

package discovery

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"

	"newsfeed-canon/core/identity"
)

type xmlLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

type xmlItem struct {
	Link string `xml:"link"`
}

type xmlEntry struct {
	Links []xmlLink `xml:"link"`
}

type xmlLoc struct {
	Loc string `xml:"loc"`
}

// xmlDocument covers the RSS, RDF, Atom and sitemap roots in one shape.
type xmlDocument struct {
	XMLName xml.Name
	Channel struct {
		Items []xmlItem `xml:"item"`
	} `xml:"channel"`
	Items    []xmlItem  `xml:"item"`
	Entries  []xmlEntry `xml:"entry"`
	URLs     []xmlLoc   `xml:"url"`
	Sitemaps []xmlLoc   `xml:"sitemap"`
}

// xmlLinks holds what parseXML found. Children are nested sitemap URLs.
type xmlLinks struct {
	URLs     []string
	Children []string
}

// parseXML decodes body leniently. Article URLs are normalized while child
// sitemap locations are kept as given. It returns ok=false when nothing usable was found.
func parseXML(body []byte) (xmlLinks, bool) {
	var doc xmlDocument
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil && doc.XMLName.Local == "" {
		return xmlLinks{}, false
	}

	var out xmlLinks
	items := append(doc.Channel.Items, doc.Items...)
	switch {
	case len(items) > 0:
		for _, it := range items {
			if l := identity.Normalize(it.Link); l != "" {
				out.URLs = append(out.URLs, l)
			}
		}
	case len(doc.Entries) > 0:
		for _, e := range doc.Entries {
			if href := identity.Normalize(entryHref(e)); href != "" {
				out.URLs = append(out.URLs, href)
			}
		}
	default:
		for _, u := range doc.URLs {
			if l := identity.Normalize(u.Loc); l != "" {
				out.URLs = append(out.URLs, l)
			}
		}
		for _, s := range doc.Sitemaps {
			if l := strings.TrimSpace(s.Loc); l != "" {
				out.Children = append(out.Children, l)
			}
		}
	}
	return out, len(out.URLs) > 0 || len(out.Children) > 0
}

// entryHref prefers the alternate link of an Atom entry.
func entryHref(e xmlEntry) string {
	first := ""
	for _, l := range e.Links {
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if first == "" {
			first = href
		}
	}
	return first
}

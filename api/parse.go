package api

import (
	"github.com/beevik/etree"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ka2n/sitelens/api/site"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

func readDocument(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if err := doc.ReadFromBytes(body); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrMalformedResponse),
			failure.Message("Response is not an XML document"),
			failure.Context{"content_type": mimetype.Detect(body).String()},
		)
	}
	if doc.Root() == nil {
		return nil, failure.New(ErrMalformedResponse,
			failure.Message("Response has no root element"),
			failure.Context{"content_type": mimetype.Detect(body).String()},
		)
	}
	return doc, nil
}

// records returns the direct children of every record-group element named group
func records(doc *etree.Document, group string) []*etree.Element {
	return doc.FindElements("//" + group + "/*")
}

// ParseSiteData turns the children of SD elements into site data entries.
// A document without an SD element yields no entries.
func ParseSiteData(body []byte) ([]site.DataEntry, error) {
	doc, err := readDocument(body)
	if err != nil {
		return nil, err
	}

	return lo.Map(records(doc, site.ModeSiteData.RecordGroup()), func(el *etree.Element, _ int) site.DataEntry {
		details := make([]site.Detail, 0, len(el.Attr))
		for i := range el.Attr {
			attr := &el.Attr[i]
			details = append(details, site.Detail{
				Name:  attr.FullKey(),
				Value: attr.Value,
			})
		}
		return site.DataEntry{
			Name:    el.FullTag(),
			Details: details,
		}
	}), nil
}

// ParseRelatedLinks turns the children of RLS elements into related links.
// Missing TITLE or HREF attributes become empty strings.
func ParseRelatedLinks(body []byte) ([]site.RelatedLink, error) {
	doc, err := readDocument(body)
	if err != nil {
		return nil, err
	}

	return lo.Map(records(doc, site.ModeRelatedLinks.RecordGroup()), func(el *etree.Element, _ int) site.RelatedLink {
		return site.RelatedLink{
			Title: el.SelectAttrValue("TITLE", ""),
			Href:  el.SelectAttrValue("HREF", ""),
		}
	}), nil
}

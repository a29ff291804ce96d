// Package site holds the records returned by the site-ranking API.
package site

// Mode selects which record set the upstream API returns
type Mode string

// String returns the string representation of the Mode
func (m Mode) String() string {
	return string(m)
}

// RecordGroup returns the XML element whose direct children are the records for the mode
func (m Mode) RecordGroup() string {
	switch m {
	case ModeSiteData:
		return "SD"
	case ModeRelatedLinks:
		return "RLS"
	default:
		return ""
	}
}

const (
	// ModeSiteData requests site metadata (dat=s)
	ModeSiteData Mode = "s"
	// ModeRelatedLinks requests related sites (dat=n)
	ModeRelatedLinks Mode = "n"
)

// Detail is a single attribute of a site data record
type Detail struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DataEntry is one site data record. Name is the record's element name and
// Details are its attributes in document order.
type DataEntry struct {
	Name    string   `json:"name"`
	Details []Detail `json:"details"`
}

// RelatedLink is one related site
type RelatedLink struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

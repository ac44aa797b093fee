package feed

import (
	"encoding/xml"
	"strings"
)

// ChannelRecord is the intermediate channel shape extracted from the feed,
// prior to any domain validation.
type ChannelRecord struct {
	ExternalID  string
	DisplayName string
	Icon        *string
}

// ProgrammeRecord is the intermediate programme shape extracted from the
// feed. Start and Stop stay as the feed-native `YYYYMMDDHHMMSS ±ZZZZ`
// strings; the converter turns them into instants.
type ProgrammeRecord struct {
	ChannelExternalID string
	Start             string
	Stop              string
	Title             string
	Description       *string
	Icon              *string
	Category          *string
	Year              *string
	Rating            *string
}

// ParsedFeed holds the structural extraction of one feed document.
type ParsedFeed struct {
	Channels   []ChannelRecord
	Programmes []ProgrammeRecord
}

// Wire types mirroring the XMLTV document structure

type xmlFeed struct {
	XMLName    xml.Name       `xml:"tv"`
	Channels   []xmlChannel   `xml:"channel"`
	Programmes []xmlProgramme `xml:"programme"`
}

type xmlChannel struct {
	ID          string   `xml:"id,attr"`
	DisplayName string   `xml:"display-name"`
	Icon        *xmlIcon `xml:"icon"`
}

type xmlProgramme struct {
	Channel     string     `xml:"channel,attr"`
	Start       string     `xml:"start,attr"`
	Stop        string     `xml:"stop,attr"`
	Title       string     `xml:"title"`
	Description string     `xml:"desc"`
	Icon        *xmlIcon   `xml:"icon"`
	Category    string     `xml:"category"`
	Date        string     `xml:"date"`
	Rating      *xmlRating `xml:"rating"`
}

type xmlIcon struct {
	Src string `xml:"src,attr"`
}

type xmlRating struct {
	Value string `xml:"value"`
}

// Parse extracts channel and programme records from raw feed markup. It
// performs structural extraction only; unresolvable references, bad
// timestamps, and invalid entities are the converter's concern.
func Parse(content string) (*ParsedFeed, error) {
	var doc xmlFeed
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	parsed := &ParsedFeed{
		Channels:   make([]ChannelRecord, 0, len(doc.Channels)),
		Programmes: make([]ProgrammeRecord, 0, len(doc.Programmes)),
	}

	for _, ch := range doc.Channels {
		parsed.Channels = append(parsed.Channels, ChannelRecord{
			ExternalID:  strings.TrimSpace(ch.ID),
			DisplayName: strings.TrimSpace(ch.DisplayName),
			Icon:        iconSrc(ch.Icon),
		})
	}

	for _, p := range doc.Programmes {
		record := ProgrammeRecord{
			ChannelExternalID: strings.TrimSpace(p.Channel),
			Start:             strings.TrimSpace(p.Start),
			Stop:              strings.TrimSpace(p.Stop),
			Title:             strings.TrimSpace(p.Title),
			Description:       optional(p.Description),
			Icon:              iconSrc(p.Icon),
			Category:          optional(p.Category),
			Year:              optional(p.Date),
		}
		if p.Rating != nil {
			record.Rating = optional(p.Rating.Value)
		}
		parsed.Programmes = append(parsed.Programmes, record)
	}

	return parsed, nil
}

func iconSrc(icon *xmlIcon) *string {
	if icon == nil || strings.TrimSpace(icon.Src) == "" {
		return nil
	}
	src := strings.TrimSpace(icon.Src)
	return &src
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

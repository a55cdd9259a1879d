package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Property types used by the films database
const (
	TypeTitle    = "title"
	TypeRichText = "rich_text"
	TypeURL      = "url"
	TypeDate     = "date"
	TypeCheckbox = "checkbox"
)

// maxTextLength is the largest content Notion accepts in one rich text item
const maxTextLength = 2000

// TextContent is the content of a text rich text item
type TextContent struct {
	Content string `json:"content"`
}

// RichText is one rich text item
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

// DateValue is the value of a date property
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// Property is a single page property value
type Property struct {
	Type     string
	Title    []RichText
	RichText []RichText
	URL      *string
	Date     *DateValue
	Checkbox bool
}

type propertyJSON struct {
	Type     string     `json:"type"`
	Title    []RichText `json:"title"`
	RichText []RichText `json:"rich_text"`
	URL      *string    `json:"url"`
	Date     *DateValue `json:"date"`
	Checkbox bool       `json:"checkbox"`
}

// MarshalJSON writes only the value for the property's type, so a nil date
// or url is sent as null and clears the remote field
func (p Property) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch p.Type {
	case TypeTitle:
		value = nonNilText(p.Title)
	case TypeRichText:
		value = nonNilText(p.RichText)
	case TypeURL:
		value = p.URL
	case TypeDate:
		value = p.Date
	case TypeCheckbox:
		value = p.Checkbox
	default:
		return nil, fmt.Errorf("unsupported property type %q", p.Type)
	}
	return json.Marshal(map[string]interface{}{p.Type: value})
}

// UnmarshalJSON reads a property value as returned by the API
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw propertyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Property{
		Type:     raw.Type,
		Title:    raw.Title,
		RichText: raw.RichText,
		URL:      raw.URL,
		Date:     raw.Date,
		Checkbox: raw.Checkbox,
	}
	return nil
}

func nonNilText(items []RichText) []RichText {
	if items == nil {
		return []RichText{}
	}
	return items
}

// PlainText concatenates the text of a title or rich text property
func (p Property) PlainText() string {
	items := p.RichText
	if p.Type == TypeTitle {
		items = p.Title
	}
	var b strings.Builder
	for _, item := range items {
		switch {
		case item.PlainText != "":
			b.WriteString(item.PlainText)
		case item.Text != nil:
			b.WriteString(item.Text.Content)
		}
	}
	return b.String()
}

// Value returns the property as a plain Go value: string for text, url and
// date properties, bool for checkboxes, nil for an empty date
func (p Property) Value() interface{} {
	switch p.Type {
	case TypeTitle, TypeRichText:
		return p.PlainText()
	case TypeURL:
		if p.URL == nil {
			return ""
		}
		return *p.URL
	case TypeDate:
		if p.Date == nil {
			return nil
		}
		return p.Date.Start
	case TypeCheckbox:
		return p.Checkbox
	default:
		return nil
	}
}

// TitleProperty builds a title property
func TitleProperty(s string) Property {
	return Property{Type: TypeTitle, Title: chunkText(s)}
}

// RichTextProperty builds a rich text property, split into API-sized items
func RichTextProperty(s string) Property {
	return Property{Type: TypeRichText, RichText: chunkText(s)}
}

// URLProperty builds a url property. An empty string clears it.
func URLProperty(s string) Property {
	if s == "" {
		return Property{Type: TypeURL}
	}
	return Property{Type: TypeURL, URL: &s}
}

// DateProperty builds a date property. A nil time clears it.
func DateProperty(t *time.Time) Property {
	if t == nil {
		return Property{Type: TypeDate}
	}
	return Property{Type: TypeDate, Date: &DateValue{Start: t.UTC().Format(time.RFC3339)}}
}

// CheckboxProperty builds a checkbox property
func CheckboxProperty(b bool) Property {
	return Property{Type: TypeCheckbox, Checkbox: b}
}

func chunkText(s string) []RichText {
	if s == "" {
		return []RichText{}
	}
	var items []RichText
	runes := []rune(s)
	for len(runes) > 0 {
		n := len(runes)
		if n > maxTextLength {
			n = maxTextLength
		}
		items = append(items, RichText{Type: "text", Text: &TextContent{Content: string(runes[:n])}})
		runes = runes[n:]
	}
	return items
}

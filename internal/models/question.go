package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// QuestionRecord is one raw question as served by the content backend. The
// backend has used two naming conventions over time, so both are accepted:
//
//	{"_id": "...", "question": "...", "positiveEmotions": "Joy", "categoryId": 1}
//	{"id": "...",  "text": "...",     "category": "Joy",         "categoryId": 1}
type QuestionRecord struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Category string          `json:"category"`
	Rank     *int            `json:"rank,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

type questionRecordWire struct {
	UnderscoreID     json.RawMessage `json:"_id"`
	ID               json.RawMessage `json:"id"`
	Question         string          `json:"question"`
	Text             string          `json:"text"`
	PositiveEmotions string          `json:"positiveEmotions"`
	Category         string          `json:"category"`
	CategoryID       json.RawMessage `json:"categoryId"`
}

func (r *QuestionRecord) UnmarshalJSON(data []byte) error {
	var wire questionRecordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	id := scalarString(wire.UnderscoreID)
	if id == "" {
		id = scalarString(wire.ID)
	}
	text := wire.Question
	if text == "" {
		text = wire.Text
	}
	category := wire.PositiveEmotions
	if category == "" {
		category = wire.Category
	}

	*r = QuestionRecord{
		ID:       id,
		Text:     text,
		Category: category,
		Rank:     scalarInt(wire.CategoryID),
		Raw:      append(json.RawMessage(nil), data...),
	}
	return nil
}

// scalarString renders a JSON string or number as text; anything else is "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// scalarInt accepts a JSON number or a numeric string.
func scalarInt(raw json.RawMessage) *int {
	s := scalarString(raw)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

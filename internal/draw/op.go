package draw

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the operation variants.
type Kind string

const (
	KindStroke Kind = "stroke"
	KindShape  Kind = "shape"
	KindText   Kind = "text"
	KindClear  Kind = "clear"
)

// ShapeKind identifies the geometric primitive of a Shape operation.
type ShapeKind string

const (
	ShapeRect   ShapeKind = "rect"
	ShapeCircle ShapeKind = "circle"
)

// Point is a canvas coordinate normalized to [0,1] on both axes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a committed freehand line.
type Stroke struct {
	AuthorID string  `json:"userId,omitempty"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Eraser   bool    `json:"eraser"`
	Points   []Point `json:"points"`
}

// Shape is a committed geometric primitive drawn between two corners.
type Shape struct {
	AuthorID string    `json:"userId,omitempty"`
	Kind     ShapeKind `json:"kind"`
	From     Point     `json:"from"`
	To       Point     `json:"to"`
	Color    string    `json:"color"`
	Width    float64   `json:"width"`
}

// Text is a committed text label.
type Text struct {
	AuthorID string  `json:"userId,omitempty"`
	Text     string  `json:"text"`
	Position Point   `json:"position"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
}

// Op is the tagged union of committable operations. Exactly the field
// matching Kind is non-nil; a clear carries no payload.
//
// Operations are immutable once committed to a room's history.
type Op struct {
	Kind   Kind
	Stroke *Stroke
	Shape  *Shape
	Text   *Text
}

// NewStroke creates a freehand stroke operation.
func NewStroke(authorID, color string, width float64, eraser bool, points []Point) Op {
	return Op{Kind: KindStroke, Stroke: &Stroke{
		AuthorID: authorID,
		Color:    color,
		Width:    width,
		Eraser:   eraser,
		Points:   points,
	}}
}

// NewShape creates a shape operation.
func NewShape(authorID string, kind ShapeKind, from, to Point, color string, width float64) Op {
	return Op{Kind: KindShape, Shape: &Shape{
		AuthorID: authorID,
		Kind:     kind,
		From:     from,
		To:       to,
		Color:    color,
		Width:    width,
	}}
}

// NewText creates a text operation.
func NewText(authorID, text string, position Point, color string, size float64) Op {
	return Op{Kind: KindText, Text: &Text{
		AuthorID: authorID,
		Text:     text,
		Position: position,
		Color:    color,
		Size:     size,
	}}
}

// NewClear creates the sentinel that resets the visible picture on replay.
func NewClear() Op {
	return Op{Kind: KindClear}
}

// IsClear reports whether the operation is the clear sentinel.
func (o Op) IsClear() bool {
	return o.Kind == KindClear
}

// AuthorID returns the participant that committed the operation.
// Clears carry no author.
func (o Op) AuthorID() string {
	switch o.Kind {
	case KindStroke:
		return o.Stroke.AuthorID
	case KindShape:
		return o.Shape.AuthorID
	case KindText:
		return o.Text.AuthorID
	case KindClear:
		return ""
	}

	return ""
}

// SetAuthorID stamps the committing participant onto the operation.
// It is a no-op for clears.
func (o *Op) SetAuthorID(id string) {
	switch o.Kind {
	case KindStroke:
		o.Stroke.AuthorID = id
	case KindShape:
		o.Shape.AuthorID = id
	case KindText:
		o.Text.AuthorID = id
	case KindClear:
	}
}

// MarshalJSON encodes the operation in the flat wire format with a
// "type" discriminator.
func (o Op) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case KindStroke:
		if o.Stroke == nil {
			return nil, fmt.Errorf("stroke operation has no payload")
		}

		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Stroke
		}{KindStroke, o.Stroke})
	case KindShape:
		if o.Shape == nil {
			return nil, fmt.Errorf("shape operation has no payload")
		}

		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Shape
		}{KindShape, o.Shape})
	case KindText:
		if o.Text == nil {
			return nil, fmt.Errorf("text operation has no payload")
		}

		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Text
		}{KindText, o.Text})
	case KindClear:
		return json.Marshal(struct {
			Type Kind `json:"type"`
		}{KindClear})
	}

	return nil, fmt.Errorf("unknown operation kind %q", o.Kind)
}

// UnmarshalJSON decodes the flat wire format, dispatching on the
// "type" discriminator.
func (o *Op) UnmarshalJSON(data []byte) error {
	var head struct {
		Type Kind `json:"type"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Type {
	case KindStroke:
		var s Stroke
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*o = Op{Kind: KindStroke, Stroke: &s}
	case KindShape:
		var s Shape
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		if s.Kind != ShapeRect && s.Kind != ShapeCircle {
			return fmt.Errorf("unknown shape kind %q", s.Kind)
		}

		*o = Op{Kind: KindShape, Shape: &s}
	case KindText:
		var t Text
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}

		*o = Op{Kind: KindText, Text: &t}
	case KindClear:
		*o = Op{Kind: KindClear}
	default:
		return fmt.Errorf("unknown operation type %q", head.Type)
	}

	return nil
}

package scene

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

// DefaultScale is the scale factor used when scaleX or scaleY is absent.
const DefaultScale = 1.0

// Decode reads a conversion request envelope and returns its scene.
//
// The envelope has the form {"fabricJSON": {"background": ..., "objects": [...]}}.
// A missing fabricJSON field is INVALID_INPUT.
func Decode(r io.Reader) (*Scene, error) {
	var env struct {
		FabricJSON json.RawMessage `json:"fabricJSON"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "request body is not valid JSON")
	}
	if isNull(env.FabricJSON) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "fabricJSON is required")
	}
	return Parse(env.FabricJSON)
}

// ParseDocument accepts either a request envelope or a bare scene document.
func ParseDocument(data []byte) (*Scene, error) {
	var env struct {
		FabricJSON json.RawMessage `json:"fabricJSON"`
	}
	if err := json.Unmarshal(data, &env); err == nil && !isNull(env.FabricJSON) {
		return Parse(env.FabricJSON)
	}
	return Parse(data)
}

// Parse decodes a bare scene document.
func Parse(data []byte) (*Scene, error) {
	var raw struct {
		Background json.RawMessage `json:"background"`
		Objects    json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "scene must be a JSON object")
	}

	s := &Scene{}
	if !isNull(raw.Background) {
		if err := json.Unmarshal(raw.Background, &s.Background); err != nil {
			return nil, errors.New(errors.ErrCodeRender, "background must be a color string")
		}
	}

	if isNull(raw.Objects) {
		return s, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw.Objects, &items); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "objects must be an array")
	}

	s.Objects = make([]Object, 0, len(items))
	for i, item := range items {
		obj, err := decodeObject(i, item)
		if err != nil {
			return nil, err
		}
		s.Objects = append(s.Objects, obj)
	}
	return s, nil
}

// UnmarshalJSON implements json.Unmarshaler by delegating to [Parse].
func (s *Scene) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// rawObject mirrors the union of all variant attributes. Pointers
// distinguish absent fields from zero values.
type rawObject struct {
	Left      *float64        `json:"left"`
	Top       *float64        `json:"top"`
	ScaleX    *float64        `json:"scaleX"`
	ScaleY    *float64        `json:"scaleY"`
	Fill      json.RawMessage `json:"fill"`
	Radius    *float64        `json:"radius"`
	Width     *float64        `json:"width"`
	Height    *float64        `json:"height"`
	Text      *string         `json:"text"`
	FontSize  *float64        `json:"fontSize"`
	TextAlign *string         `json:"textAlign"`
	Src       *string         `json:"src"`
}

func decodeObject(index int, data []byte) (Object, error) {
	var head struct {
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "object %d: malformed attributes", index)
	}
	var typeName string
	if !isNull(head.Type) {
		// A non-string type cannot name a supported variant.
		_ = json.Unmarshal(head.Type, &typeName)
	}
	if !Type(typeName).Known() {
		return &Unknown{Base: Base{Index: index}, TypeName: typeName}, nil
	}

	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "object %d: malformed attributes", index)
	}

	base := Base{
		Index:  index,
		Left:   valueOr(raw.Left, 0),
		Top:    valueOr(raw.Top, 0),
		ScaleX: valueOr(raw.ScaleX, DefaultScale),
		ScaleY: valueOr(raw.ScaleY, DefaultScale),
	}
	if !isNull(raw.Fill) {
		if err := json.Unmarshal(raw.Fill, &base.Fill); err != nil {
			return nil, errors.New(errors.ErrCodeRender, "object %d: fill must be a color string", index)
		}
	}

	m := missing{index: index, typ: typeName}

	switch Type(typeName) {
	case TypeCircle:
		m.check(raw.Radius != nil, "radius")
		m.check(base.Fill != "", "fill")
		if err := m.err(); err != nil {
			return nil, err
		}
		return &Circle{Base: base, Radius: *raw.Radius}, nil

	case TypeRect:
		m.check(raw.Width != nil, "width")
		m.check(raw.Height != nil, "height")
		m.check(base.Fill != "", "fill")
		if err := m.err(); err != nil {
			return nil, err
		}
		return &Rect{Base: base, Width: *raw.Width, Height: *raw.Height}, nil

	case TypeTriangle:
		m.check(raw.Width != nil, "width")
		m.check(raw.Height != nil, "height")
		m.check(base.Fill != "", "fill")
		if err := m.err(); err != nil {
			return nil, err
		}
		return &Triangle{Base: base, Width: *raw.Width, Height: *raw.Height}, nil

	case TypeTextBox:
		m.check(raw.Text != nil, "text")
		m.check(raw.FontSize != nil, "fontSize")
		if err := m.err(); err != nil {
			return nil, err
		}
		align, err := parseAlign(index, raw.TextAlign)
		if err != nil {
			return nil, err
		}
		return &TextBox{
			Base:      base,
			Text:      *raw.Text,
			FontSize:  *raw.FontSize,
			Width:     valueOr(raw.Width, 0),
			TextAlign: align,
		}, nil

	case TypeImage:
		m.check(raw.Src != nil && *raw.Src != "", "src")
		m.check(raw.Width != nil, "width")
		m.check(raw.Height != nil, "height")
		if err := m.err(); err != nil {
			return nil, err
		}
		return &Image{Base: base, Src: *raw.Src, Width: *raw.Width, Height: *raw.Height}, nil
	}

	return &Unknown{Base: Base{Index: index}, TypeName: typeName}, nil
}

// parseAlign maps Fabric's textAlign values onto [Align].
// The justify-left/center/right variants collapse to justify.
func parseAlign(index int, v *string) (Align, error) {
	if v == nil || *v == "" {
		return AlignLeft, nil
	}
	a := Align(strings.ToLower(*v))
	if strings.HasPrefix(string(a), "justify-") {
		a = AlignJustify
	}
	if !a.Valid() {
		return "", errors.New(errors.ErrCodeRender, "object %d (textbox): unsupported textAlign %q", index, *v)
	}
	return a, nil
}

// missing collects absent required attributes of one object.
type missing struct {
	index  int
	typ    string
	fields []string
}

func (m *missing) check(present bool, field string) {
	if !present {
		m.fields = append(m.fields, field)
	}
}

func (m *missing) err() error {
	if len(m.fields) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeRender, "object %d (%s): missing %s",
		m.index, m.typ, strings.Join(m.fields, ", "))
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

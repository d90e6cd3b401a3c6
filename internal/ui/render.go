// Package ui renders the held reading and hosts the window and console shells.
package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
)

// Line is one "key: value" row.
type Line struct {
	Key   string
	Value string
}

func (l Line) String() string {
	return l.Key + ": " + l.Value
}

// Section is a titled group of lines. Placeholder is shown when Lines is empty.
type Section struct {
	Title       string
	Lines       []Line
	Placeholder string
}

// View is the presentation of one reading.
type View struct {
	Sections []Section
}

// Render splits reading into the location section and the device section.
// present is false when no reading has been received.
func Render(reading models.Reading, present bool) View {
	var location, details map[string]any
	if present {
		location = reading.Location()
		details = reading.Details()
	}

	return View{Sections: []Section{
		{Title: constants.LocationSectionTitle, Lines: lines(location), Placeholder: constants.NoLocationData},
		{Title: constants.DeviceSectionTitle, Lines: lines(details), Placeholder: constants.NoDeviceInfo},
	}}
}

func lines(fields map[string]any) []Line {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Line, 0, len(keys))
	for _, k := range keys {
		out = append(out, Line{Key: k, Value: FormatValue(fields[k])})
	}
	return out
}

// FormatValue renders a payload value the way it reads as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// String renders the view as plain text.
func (v View) String() string {
	var b strings.Builder
	for i, s := range v.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Title)
		b.WriteString("\n")
		if len(s.Lines) == 0 {
			b.WriteString("  ")
			b.WriteString(s.Placeholder)
			b.WriteString("\n")
			continue
		}
		for _, l := range s.Lines {
			b.WriteString("  ")
			b.WriteString(l.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

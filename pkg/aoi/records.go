package aoi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRecord is the sentinel behind every *RecordError.
var ErrInvalidRecord = errors.New("invalid aoi record")

// RecordError reports a response item that is missing or mistypes a required field.
type RecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("aoi record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("aoi record %d: field %q %s", e.Index, e.Field, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }

const (
	fieldLot          = "lot"
	fieldWafer        = "wafer"
	fieldBubbleSize   = "bubbleSize"
	fieldBondDieCount = "bondDieCount"
)

// AOIOption is one selectable lot/wafer returned by the options endpoint.
type AOIOption struct {
	Lot string
	// Wafer is the composite "<lot>#<wafer>" key.
	Wafer string
	// RawWafer is the wafer id as the server sent it.
	RawWafer string
	// Extra keeps every other server field untouched.
	Extra map[string]json.RawMessage
}

// MarshalJSON emits the Extra fields with lot and the composite wafer on top.
func (o AOIOption) MarshalJSON() ([]byte, error) {
	return marshalRecord(o.Extra, map[string]any{
		fieldLot:   o.Lot,
		fieldWafer: o.Wafer,
	})
}

// WaferSummary is one wafer row of the AOI summary.
type WaferSummary struct {
	Lot          string
	Wafer        string
	RawWafer     string
	BubbleSize   Number
	BondDieCount DieCount
	Extra        map[string]json.RawMessage
}

// MarshalJSON emits the Extra fields with the normalized lot, wafer,
// bubbleSize (NaN as null) and bondDieCount ("" when falsy) on top.
func (s WaferSummary) MarshalJSON() ([]byte, error) {
	return marshalRecord(s.Extra, map[string]any{
		fieldLot:          s.Lot,
		fieldWafer:        s.Wafer,
		fieldBubbleSize:   s.BubbleSize,
		fieldBondDieCount: s.BondDieCount,
	})
}

// DefectImage is the binary defect crop served by the image endpoint.
type DefectImage struct {
	ContentType string
	Data        []byte
}

func decodeOption(idx int, raw json.RawMessage) (AOIOption, error) {
	fields, err := decodeFields(idx, raw)
	if err != nil {
		return AOIOption{}, err
	}
	lot, wafer, rawWafer, err := compositeWafer(idx, fields)
	if err != nil {
		return AOIOption{}, err
	}

	delete(fields, fieldLot)
	delete(fields, fieldWafer)
	return AOIOption{
		Lot:      lot,
		Wafer:    wafer,
		RawWafer: rawWafer,
		Extra:    fields,
	}, nil
}

func decodeSummary(idx int, raw json.RawMessage) (WaferSummary, error) {
	fields, err := decodeFields(idx, raw)
	if err != nil {
		return WaferSummary{}, err
	}
	lot, wafer, rawWafer, err := compositeWafer(idx, fields)
	if err != nil {
		return WaferSummary{}, err
	}

	bubble, ok := fields[fieldBubbleSize]
	if !ok {
		return WaferSummary{}, &RecordError{Index: idx, Field: fieldBubbleSize, Reason: "is required"}
	}

	// Truthiness, not presence: numeric 0 and "" both become the empty sentinel,
	// while the string "0" is parsed to 0.
	var dies DieCount
	if rawDies := fields[fieldBondDieCount]; truthy(rawDies) {
		dies = DieCount{Value: parseFloatValue(rawDies), Valid: true}
	}

	for _, k := range []string{fieldLot, fieldWafer, fieldBubbleSize, fieldBondDieCount} {
		delete(fields, k)
	}
	return WaferSummary{
		Lot:          lot,
		Wafer:        wafer,
		RawWafer:     rawWafer,
		BubbleSize:   Number(parseFloatValue(bubble)),
		BondDieCount: dies,
		Extra:        fields,
	}, nil
}

func decodeFields(idx int, raw json.RawMessage) (map[string]json.RawMessage, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || v[0] != '{' {
		return nil, &RecordError{Index: idx, Reason: "is not a JSON object"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(v, &fields); err != nil {
		return nil, &RecordError{Index: idx, Reason: err.Error()}
	}
	return fields, nil
}

func compositeWafer(idx int, fields map[string]json.RawMessage) (lot, wafer, rawWafer string, err error) {
	lot, err = scalarField(idx, fields, fieldLot)
	if err != nil {
		return "", "", "", err
	}
	rawWafer, err = scalarField(idx, fields, fieldWafer)
	if err != nil {
		return "", "", "", err
	}
	return lot, lot + "#" + rawWafer, rawWafer, nil
}

// scalarField reads a required string or number field as text.
func scalarField(idx int, fields map[string]json.RawMessage, name string) (string, error) {
	v := bytes.TrimSpace(fields[name])
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", &RecordError{Index: idx, Field: name, Reason: "is required"}
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", &RecordError{Index: idx, Field: name, Reason: err.Error()}
		}
		return s, nil
	case 't', 'f', '[', '{':
		return "", &RecordError{Index: idx, Field: name, Reason: "must be a string or number"}
	default:
		return jsNumberString(parseNumberLiteral(string(v))), nil
	}
}

func marshalRecord(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

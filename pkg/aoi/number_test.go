package aoi

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseFloatPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{"  42", 42},
		{" \t7", 7},
		{"3.14abc", 3.14},
		{"-.5", -0.5},
		{"+8", 8},
		{"5.", 5},
		{"1e3", 1000},
		{"1e", 1},
		{"1e+", 1},
		{"2E-2x", 0.02},
		{"0x10", 0},
		{"Infinity", math.Inf(1)},
		{"-Infinityx", math.Inf(-1)},
		{"1e400", math.Inf(1)},
	}
	for _, tc := range cases {
		if got := parseFloatPrefix(tc.in); got != tc.want {
			t.Errorf("parseFloatPrefix(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"", "abc", ".", "-", "NaN", "inf", "   "} {
		if got := parseFloatPrefix(in); !math.IsNaN(got) {
			t.Errorf("parseFloatPrefix(%q) = %v, want NaN", in, got)
		}
	}
}

func TestParseFloatValue(t *testing.T) {
	if got := parseFloatValue(json.RawMessage(`"9.5"`)); got != 9.5 {
		t.Fatalf("string value = %v", got)
	}
	if got := parseFloatValue(json.RawMessage(`11`)); got != 11 {
		t.Fatalf("number value = %v", got)
	}
	for _, raw := range []string{``, `null`, `true`, `false`, `{}`, `[]`, `[null]`, `["x1"]`, `[{"a":1}]`} {
		if got := parseFloatValue(json.RawMessage(raw)); !math.IsNaN(got) {
			t.Errorf("parseFloatValue(%s) = %v, want NaN", raw, got)
		}
	}
}

func TestParseFloatValueArrays(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`[1.5]`, 1.5},
		{`["2x"]`, 2},
		{`[3]`, 3},
		{`[4, 5]`, 4},
		{`[[6.25, 7]]`, 6.25},
		{`[" 8e1"]`, 80},
		{`["-Infinity"]`, math.Inf(-1)},
	}
	for _, tc := range cases {
		if got := parseFloatValue(json.RawMessage(tc.raw)); got != tc.want {
			t.Errorf("parseFloatValue(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	truthyValues := []string{`1`, `-2.5`, `"0"`, `" "`, `"abc"`, `true`, `[]`, `{}`}
	for _, raw := range truthyValues {
		if !truthy(json.RawMessage(raw)) {
			t.Errorf("truthy(%s) = false, want true", raw)
		}
	}
	falsyValues := []string{``, `null`, `false`, `0`, `-0`, `0.0`, `""`}
	for _, raw := range falsyValues {
		if truthy(json.RawMessage(raw)) {
			t.Errorf("truthy(%s) = true, want false", raw)
		}
	}
}

func TestJSNumberString(t *testing.T) {
	cases := map[float64]string{
		7:       "7",
		3.0:     "3",
		-0.0:    "0",
		1.5:     "1.5",
		1e21:    "1e+21",
		1.5e-7:  "1.5e-7",
		123456:  "123456",
		0.00001: "0.00001",
	}
	for in, want := range cases {
		if got := jsNumberString(in); got != want {
			t.Errorf("jsNumberString(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDieCountMarshal(t *testing.T) {
	raw, _ := json.Marshal(DieCount{})
	if string(raw) != `""` {
		t.Fatalf("empty DieCount = %s", raw)
	}
	raw, _ = json.Marshal(DieCount{Value: 12, Valid: true})
	if string(raw) != `12` {
		t.Fatalf("valid DieCount = %s", raw)
	}
}

func TestNumberAndDieCountString(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{Number(math.NaN()).String(), "NaN"},
		{Number(math.Inf(-1)).String(), "-Infinity"},
		{Number(2.5).String(), "2.5"},
		{DieCount{}.String(), ""},
		{DieCount{Value: 40, Valid: true}.String(), "40"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

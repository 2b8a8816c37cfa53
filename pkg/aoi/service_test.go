package aoi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/aoi-inspection-client/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Response interface.
type fakeResponse struct {
	body        []byte
	contentType string
}

func (f fakeResponse) Body() []byte        { return f.body }
func (f fakeResponse) StatusCode() int     { return http.StatusOK }
func (f fakeResponse) ContentType() string { return f.contentType }

// recordingClient returns a canned body and remembers the last call.
type recordingClient struct {
	body        string
	contentType string
	err         error

	path string
	req  httpclient.Request
}

func (r *recordingClient) Get(_ context.Context, path string, req httpclient.Request) (httpclient.Response, error) {
	r.path = path
	r.req = req
	if r.err != nil {
		return nil, r.err
	}
	return fakeResponse{body: []byte(r.body), contentType: r.contentType}, nil
}

func paramKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func assertKeys(t *testing.T, params map[string]string, want ...string) {
	t.Helper()
	sort.Strings(want)
	got := paramKeys(params)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("param keys = %v, want %v", got, want)
	}
}

func TestFetchOptionsBuildsCompositeWafer(t *testing.T) {
	client := &recordingClient{body: `[
		{"lot":"L1","wafer":"03","product":"P9"},
		{"lot":"L2","wafer":7}
	]`}
	svc := NewService(client)

	opts, err := svc.FetchOptions(context.Background(), "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}

	if client.path != PathOptions {
		t.Fatalf("path = %s", client.path)
	}
	assertKeys(t, client.req.Params, "startTime", "endTime")
	if client.req.Params["startTime"] != "2024-01-01 00:00:00" || client.req.Params["endTime"] != "2024-01-02 00:00:00" {
		t.Fatalf("unexpected params %#v", client.req.Params)
	}

	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if opts[0].Wafer != "L1#03" || opts[0].RawWafer != "03" || opts[0].Lot != "L1" {
		t.Fatalf("unexpected first option %+v", opts[0])
	}
	if opts[1].Wafer != "L2#7" {
		t.Fatalf("numeric wafer should stringify, got %q", opts[1].Wafer)
	}
	if string(opts[0].Extra["product"]) != `"P9"` {
		t.Fatalf("extra fields should pass through, got %#v", opts[0].Extra)
	}
}

func TestFetchOptionsPreservesServerOrder(t *testing.T) {
	client := &recordingClient{body: `[{"lot":"B","wafer":"1"},{"lot":"A","wafer":"1"},{"lot":"B","wafer":"1"}]`}
	opts, err := NewService(client).FetchOptions(context.Background(), "", "")
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}
	got := []string{opts[0].Wafer, opts[1].Wafer, opts[2].Wafer}
	if strings.Join(got, ",") != "B#1,A#1,B#1" {
		t.Fatalf("order or duplicates changed: %v", got)
	}
}

func TestFetchWaferAOIListTransformsFields(t *testing.T) {
	client := &recordingClient{body: `[
		{"lot":"L1","wafer":"03","bubbleSize":"12.5","bondDieCount":"40"},
		{"lot":"L1","wafer":"04","bubbleSize":"abc","bondDieCount":0},
		{"lot":"L1","wafer":"05","bubbleSize":"7.25mm","bondDieCount":"0"},
		{"lot":"L1","wafer":"06","bubbleSize":3,"bondDieCount":""},
		{"lot":"L1","wafer":"07","bubbleSize":null},
		{"lot":"L1","wafer":"08","bubbleSize":"1","bondDieCount":null},
		{"lot":"L1","wafer":"09","bubbleSize":"1","bondDieCount":12}
	]`}
	svc := NewService(client)

	q := SummaryQuery{StartTime: "s", EndTime: "e", Product: "p", Layer: "l", Eqp: "eq", Lot: "L1"}
	rows, err := svc.FetchWaferAOIList(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchWaferAOIList: %v", err)
	}

	if client.path != PathSummary {
		t.Fatalf("path = %s", client.path)
	}
	assertKeys(t, client.req.Params, "startTime", "endTime", "product", "layer", "eqp", "lot", "wafer")
	if client.req.Params["wafer"] != "" {
		t.Fatalf("absent wafer filter should be empty so the transport drops it, got %q", client.req.Params["wafer"])
	}

	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}

	if rows[0].Wafer != "L1#03" || rows[0].BubbleSize != 12.5 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if !rows[0].BondDieCount.Valid || rows[0].BondDieCount.Value != 40 {
		t.Fatalf("row 0 bondDieCount = %+v", rows[0].BondDieCount)
	}

	if !rows[1].BubbleSize.IsNaN() {
		t.Fatalf("malformed bubbleSize should be NaN, got %v", rows[1].BubbleSize)
	}
	if rows[1].BondDieCount.Valid {
		t.Fatalf("numeric 0 bondDieCount is falsy and must become the empty sentinel")
	}

	if rows[2].BubbleSize != 7.25 {
		t.Fatalf("numeric prefix should parse, got %v", rows[2].BubbleSize)
	}
	if !rows[2].BondDieCount.Valid || rows[2].BondDieCount.Value != 0 {
		t.Fatalf(`string "0" bondDieCount is truthy and must parse to 0, got %+v`, rows[2].BondDieCount)
	}

	if rows[3].BubbleSize != 3 || rows[3].BondDieCount.Valid {
		t.Fatalf("row 3 = %+v", rows[3])
	}
	if !rows[4].BubbleSize.IsNaN() || rows[4].BondDieCount.Valid {
		t.Fatalf("row 4 = %+v", rows[4])
	}
	if rows[5].BondDieCount.Valid {
		t.Fatalf("null bondDieCount must become the empty sentinel")
	}
	if !rows[6].BondDieCount.Valid || rows[6].BondDieCount.Value != 12 {
		t.Fatalf("row 6 = %+v", rows[6])
	}
}

func TestFetchWaferAOIListParsesArrayValues(t *testing.T) {
	client := &recordingClient{body: `[
		{"lot":"L1","wafer":"01","bubbleSize":[1.5],"bondDieCount":[3]},
		{"lot":"L1","wafer":"02","bubbleSize":["2x"],"bondDieCount":[]}
	]`}
	rows, err := NewService(client).FetchWaferAOIList(context.Background(), SummaryQuery{})
	if err != nil {
		t.Fatalf("FetchWaferAOIList: %v", err)
	}
	if rows[0].BubbleSize != 1.5 || !rows[0].BondDieCount.Valid || rows[0].BondDieCount.Value != 3 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].BubbleSize != 2 {
		t.Fatalf("row 1 bubbleSize = %v", rows[1].BubbleSize)
	}
	if !rows[1].BondDieCount.Valid || !math.IsNaN(rows[1].BondDieCount.Value) {
		t.Fatalf("empty array is truthy and parses to NaN, got %+v", rows[1].BondDieCount)
	}
}

func TestWaferSummaryJSONShape(t *testing.T) {
	client := &recordingClient{body: `[
		{"lot":"L1","wafer":"03","bubbleSize":"12.5","bondDieCount":"0","eqp":"E1"},
		{"lot":"L1","wafer":"04","bubbleSize":"x","bondDieCount":0}
	]`}
	rows, err := NewService(client).FetchWaferAOIList(context.Background(), SummaryQuery{})
	if err != nil {
		t.Fatalf("FetchWaferAOIList: %v", err)
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"bondDieCount":0,"bubbleSize":12.5,"eqp":"E1","lot":"L1","wafer":"L1#03"},` +
		`{"bondDieCount":"","bubbleSize":null,"lot":"L1","wafer":"L1#04"}]`
	if string(raw) != want {
		t.Fatalf("json = %s\nwant %s", raw, want)
	}
}

func TestFetchWaferAOIListRejectsMissingFields(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"missing lot":        {body: `[{"wafer":"1","bubbleSize":"1"}]`, field: "lot"},
		"null wafer":         {body: `[{"lot":"L","wafer":null,"bubbleSize":"1"}]`, field: "wafer"},
		"missing bubbleSize": {body: `[{"lot":"L","wafer":"1"}]`, field: "bubbleSize"},
		"bool lot":           {body: `[{"lot":true,"wafer":"1","bubbleSize":"1"}]`, field: "lot"},
		"not an object":      {body: `["L#1"]`, field: ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewService(&recordingClient{body: tc.body}).FetchWaferAOIList(context.Background(), SummaryQuery{})
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			var recErr *RecordError
			if !errors.As(err, &recErr) || recErr.Field != tc.field || recErr.Index != 0 {
				t.Fatalf("unexpected record error %#v", recErr)
			}
		})
	}
}

func TestFetchDefectRawDataPassesThrough(t *testing.T) {
	body := `{"defects":[{"id":1,"x":0.5}],"note":"  spaced  "}`
	client := &recordingClient{body: body}

	got, err := NewService(client).FetchDefectRawData(context.Background(), "WK-1")
	if err != nil {
		t.Fatalf("FetchDefectRawData: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body changed: %s", got)
	}
	if client.path != PathRawData {
		t.Fatalf("path = %s", client.path)
	}
	assertKeys(t, client.req.Params, "waferKey")
	if client.req.Params["waferKey"] != "WK-1" {
		t.Fatalf("waferKey = %q", client.req.Params["waferKey"])
	}
}

func TestFetchDefectDetailPassesThrough(t *testing.T) {
	body := `{"defect_id":"D7","class":"bubble"}`
	client := &recordingClient{body: body}

	got, err := NewService(client).FetchDefectDetail(context.Background(), "WK-1", "D7")
	if err != nil {
		t.Fatalf("FetchDefectDetail: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body changed: %s", got)
	}
	if client.path != PathDefectDetail {
		t.Fatalf("path = %s", client.path)
	}
	assertKeys(t, client.req.Params, "wafer_key", "defect_id")
	if client.req.ResponseType != httpclient.JSON {
		t.Fatalf("detail should be requested as JSON")
	}
}

func TestFetchDefectImageReturnsBytes(t *testing.T) {
	payload := string([]byte{0xff, 0xd8, 0xff, 0x00, 0x10})
	client := &recordingClient{body: payload, contentType: "image/jpeg"}

	img, err := NewService(client).FetchDefectImage(context.Background(), "WK-1", "D7")
	if err != nil {
		t.Fatalf("FetchDefectImage: %v", err)
	}
	if string(img.Data) != payload || img.ContentType != "image/jpeg" {
		t.Fatalf("unexpected image %+v", img)
	}
	if client.path != PathDefectImage {
		t.Fatalf("path = %s", client.path)
	}
	assertKeys(t, client.req.Params, "wafer_key", "defect_id")
	if client.req.ResponseType != httpclient.Binary {
		t.Fatalf("image must be requested as binary")
	}
}

func TestOperationsPropagateTransportErrorUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&recordingClient{err: boom})
	ctx := context.Background()

	calls := map[string]func() error{
		"options": func() error { _, err := svc.FetchOptions(ctx, "a", "b"); return err },
		"summary": func() error { _, err := svc.FetchWaferAOIList(ctx, SummaryQuery{}); return err },
		"rawdata": func() error { _, err := svc.FetchDefectRawData(ctx, "k"); return err },
		"detail":  func() error { _, err := svc.FetchDefectDetail(ctx, "k", "d"); return err },
		"image":   func() error { _, err := svc.FetchDefectImage(ctx, "k", "d"); return err },
	}
	for name, call := range calls {
		if err := call(); err != boom {
			t.Fatalf("%s: expected the transport error itself, got %v", name, err)
		}
	}
}

func TestServiceWithoutTransport(t *testing.T) {
	var svc *Service
	if _, err := svc.FetchOptions(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error from nil service")
	}
	if _, err := NewService(nil).FetchDefectImage(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error without transport")
	}
}

func TestServiceAgainstRestyTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathSummary:
			if _, ok := r.URL.Query()["product"]; ok {
				t.Fatalf("empty product must not be sent: %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`[{"lot":"L9","wafer":"01","bubbleSize":"0.5","bondDieCount":3}]`))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer srv.Close()

	svc := NewService(httpclient.NewRestyClientWithOptions(httpclient.Options{BaseURL: srv.URL, Timeout: time.Second}))

	rows, err := svc.FetchWaferAOIList(context.Background(), SummaryQuery{StartTime: "s", EndTime: "e"})
	if err != nil {
		t.Fatalf("FetchWaferAOIList: %v", err)
	}
	if len(rows) != 1 || rows[0].Wafer != "L9#01" || rows[0].BubbleSize != 0.5 || rows[0].BondDieCount.Value != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}

	_, err = svc.FetchDefectDetail(context.Background(), "k", "d")
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusGone {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNumberMarshalsNonFiniteAsNull(t *testing.T) {
	for _, n := range []Number{Number(math.NaN()), Number(math.Inf(1)), Number(math.Inf(-1))} {
		raw, err := json.Marshal(n)
		if err != nil || string(raw) != "null" {
			t.Fatalf("Marshal(%v) = %s, %v", float64(n), raw, err)
		}
	}
}

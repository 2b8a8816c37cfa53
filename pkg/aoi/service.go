// Package aoi is the request adapter for the AOI inspection backend. Each
// operation maps its arguments to one GET on the injected transport and
// applies a small field transform to the result.
package aoi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/samvad-hq/aoi-inspection-client/pkg/httpclient"
)

// Endpoints relative to the transport base URL.
const (
	PathOptions      = "/api/v1/aoi/options"
	PathSummary      = "/api/v1/aoi/summary"
	PathRawData      = "/api/v1/aoi/rawdata"
	PathDefectDetail = "/api/v1/aoi/defect_detail"
	PathDefectImage  = "/api/v1/aoi/defects/image"
)

var errNoTransport = errors.New("aoi service has no transport")

// SummaryQuery filters the wafer summary. Empty fields are not sent.
type SummaryQuery struct {
	StartTime string
	EndTime   string
	Product   string
	Layer     string
	Eqp       string
	Lot       string
	Wafer     string
}

func (q SummaryQuery) params() map[string]string {
	return map[string]string{
		"startTime": q.StartTime,
		"endTime":   q.EndTime,
		"product":   q.Product,
		"layer":     q.Layer,
		"eqp":       q.Eqp,
		"lot":       q.Lot,
		"wafer":     q.Wafer,
	}
}

// Service issues AOI requests through an injected transport. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	client httpclient.Client
}

// NewService builds the adapter around client.
func NewService(client httpclient.Client) *Service {
	return &Service{client: client}
}

// FetchOptions lists the lot/wafer options recorded between startTime and endTime.
func (s *Service) FetchOptions(ctx context.Context, startTime, endTime string) ([]AOIOption, error) {
	if s == nil || s.client == nil {
		return nil, errNoTransport
	}

	var items []json.RawMessage
	params := map[string]string{"startTime": startTime, "endTime": endTime}
	if err := httpclient.GetJSON(ctx, s.client, PathOptions, params, &items); err != nil {
		return nil, err
	}

	out := make([]AOIOption, 0, len(items))
	for i, item := range items {
		opt, err := decodeOption(i, item)
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	return out, nil
}

// FetchWaferAOIList returns the per-wafer AOI summary matching q.
func (s *Service) FetchWaferAOIList(ctx context.Context, q SummaryQuery) ([]WaferSummary, error) {
	if s == nil || s.client == nil {
		return nil, errNoTransport
	}

	var items []json.RawMessage
	if err := httpclient.GetJSON(ctx, s.client, PathSummary, q.params(), &items); err != nil {
		return nil, err
	}

	out := make([]WaferSummary, 0, len(items))
	for i, item := range items {
		summary, err := decodeSummary(i, item)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// FetchDefectRawData returns the raw defect payload for a wafer exactly as served.
func (s *Service) FetchDefectRawData(ctx context.Context, waferKey string) (json.RawMessage, error) {
	if s == nil || s.client == nil {
		return nil, errNoTransport
	}
	return httpclient.GetRawJSON(ctx, s.client, PathRawData, map[string]string{"waferKey": waferKey})
}

// FetchDefectDetail returns the detail document of one defect exactly as served.
func (s *Service) FetchDefectDetail(ctx context.Context, waferKey, defectID string) (json.RawMessage, error) {
	if s == nil || s.client == nil {
		return nil, errNoTransport
	}
	return httpclient.GetRawJSON(ctx, s.client, PathDefectDetail, defectParams(waferKey, defectID))
}

// FetchDefectImage downloads the image crop of one defect.
func (s *Service) FetchDefectImage(ctx context.Context, waferKey, defectID string) (*DefectImage, error) {
	if s == nil || s.client == nil {
		return nil, errNoTransport
	}

	resp, err := s.client.Get(ctx, PathDefectImage, httpclient.Request{
		Params:       defectParams(waferKey, defectID),
		ResponseType: httpclient.Binary,
	})
	if err != nil {
		return nil, err
	}
	return &DefectImage{ContentType: resp.ContentType(), Data: resp.Body()}, nil
}

func defectParams(waferKey, defectID string) map[string]string {
	return map[string]string{"wafer_key": waferKey, "defect_id": defectID}
}

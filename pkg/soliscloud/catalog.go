package soliscloud

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	inverterListPath   = "/v1/api/inverterList"
	inverterDetailPath = "/v1/api/inverterDetail"
)

// InverterRecord is one entry from the account inverter list. Only the fields
// the agent cares about are decoded.
type InverterRecord struct {
	SN      string `json:"sn"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Machine string `json:"machine"`
	Version string `json:"version"`
}

type inverterPage struct {
	Page *struct {
		Records []InverterRecord `json:"records"`
	} `json:"page"`
}

// ListInverters returns every inverter on the account. It is used during
// setup validation only; steady-state polling goes through InverterDetail.
func (c *Client) ListInverters(ctx context.Context) ([]InverterRecord, error) {
	data, err := c.post(ctx, inverterListPath, map[string]string{"pageSize": "100"})
	if err != nil {
		return nil, err
	}

	var page inverterPage
	if err := json.Unmarshal(data, &page); err != nil || page.Page == nil || page.Page.Records == nil {
		return nil, &APIError{Message: "invalid inverter list response"}
	}

	c.logger.Debug().Int("count", len(page.Page.Records)).Msg("Fetched inverter list")
	return page.Page.Records, nil
}

// InverterDetail fetches the full raw field map for one inverter by serial
// number. Unknown fields are preserved; interpreting them is the consumer's
// job.
func (c *Client) InverterDetail(ctx context.Context, sn string) (map[string]any, error) {
	data, err := c.post(ctx, inverterDetailPath, map[string]string{"sn": sn})
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || string(data) == "null" {
		return nil, &APIError{Message: fmt.Sprintf("no data returned for inverter %s", sn)}
	}

	var detail map[string]any
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if len(detail) == 0 {
		return nil, &APIError{Message: fmt.Sprintf("no data returned for inverter %s", sn)}
	}

	c.logger.Debug().Str("sn", sn).Msg("Fetched inverter detail")
	return detail, nil
}

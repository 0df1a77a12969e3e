// Package setup holds the one-time credential validation performed before the
// agent is configured. Steady-state polling never calls the inverter list
// endpoint.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/soliswatch/solis-agent/internal/utils"
	"github.com/soliswatch/solis-agent/pkg/soliscloud"
)

// ErrInvalidAuth marks credential failures reported by the cloud (error code
// Z0001), as opposed to generic connectivity problems.
var ErrInvalidAuth = errors.New("soliscloud rejected the API credentials")

// ValidateCredentials checks the configured credentials by listing the
// account's inverters and returns their serial numbers. Accounts with no
// inverters or more than the supported maximum are rejected.
func ValidateCredentials(ctx context.Context, api soliscloud.API, logger zerolog.Logger) ([]string, error) {
	records, err := api.ListInverters(ctx)
	if err != nil {
		var apiErr *soliscloud.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == "Z0001" || strings.Contains(apiErr.Message, "Z0001")) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAuth, err)
		}
		return nil, err
	}

	if len(records) == 0 {
		return nil, errors.New("no inverters found on this account")
	}

	if len(records) > utils.MaxInverters {
		return nil, fmt.Errorf("too many inverters (%d), maximum supported: %d", len(records), utils.MaxInverters)
	}

	serials := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.SN == "" {
			continue
		}
		logger.Info().Str("sn", rec.SN).Str("model", rec.Model).Msg("Discovered inverter")
		serials = append(serials, rec.SN)
	}

	if len(serials) == 0 {
		return nil, errors.New("inverter list contained no serial numbers")
	}

	return serials, nil
}

package setup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliswatch/solis-agent/pkg/soliscloud"
)

// fakeAPI returns a scripted inverter list.
type fakeAPI struct {
	records []soliscloud.InverterRecord
	err     error
}

func (f *fakeAPI) ListInverters(_ context.Context) ([]soliscloud.InverterRecord, error) {
	return f.records, f.err
}

func (f *fakeAPI) InverterDetail(_ context.Context, _ string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func records(serials ...string) []soliscloud.InverterRecord {
	out := make([]soliscloud.InverterRecord, 0, len(serials))
	for _, sn := range serials {
		out = append(out, soliscloud.InverterRecord{SN: sn, Model: "0200"})
	}
	return out
}

// TestValidateCredentials_Success returns the discovered serials.
func TestValidateCredentials_Success(t *testing.T) {
	api := &fakeAPI{records: records("SN001", "SN002")}

	serials, err := ValidateCredentials(context.Background(), api, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"SN001", "SN002"}, serials)
}

// TestValidateCredentials_AccountSizeGuard rejects empty accounts and
// accounts above the supported maximum.
func TestValidateCredentials_AccountSizeGuard(t *testing.T) {
	_, err := ValidateCredentials(context.Background(), &fakeAPI{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no inverters found")

	api := &fakeAPI{records: records("S1", "S2", "S3", "S4", "S5", "S6")}
	_, err = ValidateCredentials(context.Background(), api, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many inverters")
}

// TestValidateCredentials_AuthFailure classifies the cloud's Z0001 error as
// an authentication failure.
func TestValidateCredentials_AuthFailure(t *testing.T) {
	byCode := &fakeAPI{err: &soliscloud.APIError{Code: "Z0001", Message: "invalid key"}}
	_, err := ValidateCredentials(context.Background(), byCode, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidAuth)

	byMessage := &fakeAPI{err: &soliscloud.APIError{Code: "403", Message: "error Z0001: key rejected"}}
	_, err = ValidateCredentials(context.Background(), byMessage, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidAuth)
}

// TestValidateCredentials_ConnectivityFailure keeps other failures distinct
// from authentication problems.
func TestValidateCredentials_ConnectivityFailure(t *testing.T) {
	api := &fakeAPI{err: &soliscloud.TransportError{Err: fmt.Errorf("connection refused")}}

	_, err := ValidateCredentials(context.Background(), api, zerolog.Nop())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAuth)

	var transportErr *soliscloud.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

// TestValidateCredentials_SkipsBlankSerials ignores records without a serial
// number.
func TestValidateCredentials_SkipsBlankSerials(t *testing.T) {
	api := &fakeAPI{records: append(records("SN001"), soliscloud.InverterRecord{SN: ""})}

	serials, err := ValidateCredentials(context.Background(), api, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"SN001"}, serials)
}

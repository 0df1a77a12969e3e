package soliscloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListInverters_Success decodes a normal paged list response.
func TestListInverters_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "100", payload["pageSize"])

		w.Write([]byte(`{"code":"0","data":{"page":{"records":[
			{"sn":"SN001","name":"Roof East","model":"0200","machine":"S6-GR1P3K","version":"001F"},
			{"sn":"SN002","name":"Roof West","model":"0200","machine":"S6-GR1P3K","version":"001F"}
		]}}}`))
	})

	records, err := client.ListInverters(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SN001", records[0].SN)
	assert.Equal(t, "S6-GR1P3K", records[0].Machine)
}

// TestListInverters_InvalidShape rejects responses without the page/records
// structure.
func TestListInverters_InvalidShape(t *testing.T) {
	cases := map[string]string{
		"null data":       `{"code":"0","data":null}`,
		"missing page":    `{"code":"0","data":{}}`,
		"missing records": `{"code":"0","data":{"page":{}}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			_, err := client.ListInverters(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Contains(t, apiErr.Message, "invalid inverter list response")
		})
	}
}

// TestInverterDetail_Success returns the raw field map with unknown fields
// preserved.
func TestInverterDetail_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "SN001", payload["sn"])

		w.Write([]byte(`{"code":"0","data":{"pac":"3.21","currentState":"3","someNewField":42}}`))
	})

	detail, err := client.InverterDetail(context.Background(), "SN001")
	require.NoError(t, err)
	assert.Equal(t, "3.21", detail["pac"])
	assert.Equal(t, "3", detail["currentState"])
	assert.Equal(t, float64(42), detail["someNewField"])
}

// TestInverterDetail_NoData rejects empty or absent detail payloads.
func TestInverterDetail_NoData(t *testing.T) {
	cases := map[string]string{
		"null data":    `{"code":"0","data":null}`,
		"empty object": `{"code":"0","data":{}}`,
		"absent data":  `{"code":"0"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			_, err := client.InverterDetail(context.Background(), "SN404")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Contains(t, apiErr.Message, "no data returned for inverter SN404")
		})
	}
}

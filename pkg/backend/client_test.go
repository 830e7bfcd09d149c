package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCountries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/comparison-tool/get-countries", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"_id":"c1","name":"Belgium"},{"_id":"c2","name":"Netherlands"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")
	countries, err := c.GetCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "c1", countries[0].ID)
	assert.Equal(t, "Belgium", countries[0].Name)
}

func TestGetBrands_QueryAndBareResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("countryId"))
		// No data wrapper.
		w.Write([]byte(`[{"_id":"b1","brandName":"Tesla"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	brands, err := c.GetBrands(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "Tesla", brands[0].Name)
}

func TestAddModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/comparison-tool/add-model", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Model X", body["modelName"])
		assert.Equal(t, "b1", body["brandId"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"_id":"m1","modelName":"Model X"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	m, err := c.AddModel(context.Background(), "b1", "Model X")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "Model X", m.Name)
}

func TestGetComparison(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		assert.Equal(t, "m1", r.URL.Query().Get("modelId"))
		w.Write([]byte(`{"data":{
			"country":"Belgium","brand":"Tesla","model":"Model X",
			"features":{"battery_motor":[
				{"label":"Battery capacity [kWh]","fileValues":["100","95","100"]}
			]}
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	p, err := c.GetComparison(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Model X", p.Model)
	require.Len(t, p.Features["battery_motor"], 1)
	assert.Equal(t, []string{"100", "95", "100"}, p.Features["battery_motor"][0].FileValues)
}

func TestSaveComparison(t *testing.T) {
	var got SavePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/comparison-tool/save-comparison", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	payload := &SavePayload{
		Country: "Belgium", Brand: "Tesla", Model: "Model X",
		Features: map[string][]FeatureEntry{
			"battery_motor": {{Key: "battery_capacity", Label: "Battery capacity [kWh]", Value: 100.0, FileValues: []any{100.0, 95.0, 100.0}}},
		},
		Specs: map[string]map[string]any{"battery_motor": {"battery_capacity": 100.0}},
	}
	require.NoError(t, c.SaveComparison(context.Background(), payload))
	assert.Equal(t, "Model X", got.Model)
	assert.Equal(t, "battery_capacity", got.Features["battery_motor"][0].Key)
}

func TestRetryOn5xx(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var requestIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestIDs = append(requestIDs, r.Header.Get("X-Request-Id"))
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithMaxRetries(3))
	_, err := c.GetUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	// All attempts of one logical request carry the same id.
	require.Len(t, requestIDs, 3)
	assert.NotEmpty(t, requestIDs[0])
	assert.Equal(t, requestIDs[0], requestIDs[1])
	assert.Equal(t, requestIDs[0], requestIDs[2])
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such comparison"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithMaxRetries(3))
	_, err := c.GetComparison(context.Background(), "u1", "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithMaxRetries(1))
	_, err := c.GetCountries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

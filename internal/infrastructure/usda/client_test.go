package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/macrolens/allergenscan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://api.example.com/fdc"

type upstreamCall struct {
	endpoint string
	status   int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []upstreamCall
}

func (o *recordingObserver) ObserveUpstream(endpoint string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, upstreamCall{endpoint: endpoint, status: status})
}

// newMockedClient returns a client whose transport is an isolated httpmock transport
func newMockedClient(t *testing.T, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: transport, Timeout: DefaultTimeout})}, opts...)
	return NewClient("test-api-key", testBaseURL, opts...), transport
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	require.NotNil(t, client.httpClient)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.Nil(t, client.observer)
}

func TestNewClient_WithTimeout(t *testing.T) {
	client := NewClient("k", "https://api.example.com", WithTimeout(2*time.Second))
	assert.Equal(t, 2*time.Second, client.httpClient.Timeout)

	client = NewClient("k", "https://api.example.com", WithTimeout(0))
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

func TestSearchFoods_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "peanut butter", r.URL.Query().Get("query"))
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"totalHits": 2,
			"foods": [
				{"fdcId": 123456, "description": "Peanut Butter, Smooth", "brandOwner": "Acme", "ingredients": "PEANUTS, SALT", "dataType": "Branded"},
				{"fdcId": 654321, "description": "Peanut Butter, Chunky"}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	result, err := client.SearchFoods(context.Background(), "peanut butter", 3)

	require.NoError(t, err)
	require.Len(t, result.Foods, 2)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, int64(123456), result.Foods[0].FdcID)
	assert.Equal(t, "Peanut Butter, Smooth", result.Foods[0].Description.String())
	assert.Equal(t, "Acme", result.Foods[0].Brand())
	assert.Equal(t, "PEANUTS, SALT", result.Foods[0].Ingredients.String())
}

func TestSearchFoods_DefaultPageSize(t *testing.T) {
	client, transport := newMockedClient(t)

	var pageSize string
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		func(req *http.Request) (*http.Response, error) {
			pageSize = req.URL.Query().Get("pageSize")
			return httpmock.NewStringResponse(http.StatusOK, `{"foods": []}`), nil
		})

	_, err := client.SearchFoods(context.Background(), "rice", 0)

	require.NoError(t, err)
	assert.Equal(t, "3", pageSize)
}

func TestSearchFoods_EmptyResults(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusOK, `{"totalHits": 0, "foods": []}`))

	result, err := client.SearchFoods(context.Background(), "zzqx unicorn jerky", 3)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Foods)
}

func TestSearchFoods_ServerError_NoRetry(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "upstream down"))

	result, err := client.SearchFoods(context.Background(), "granola", 3)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestSearchFoods_TooManyRequests_NoRetry(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error": "OVER_RATE_LIMIT"}`))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestSearchFoods_NotFound(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSearchFoods_ErrorBodyIsTruncated(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusBadGateway, strings.Repeat("x", 5000)))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1200)
}

func TestSearchFoods_TransportError(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotContains(t, err.Error(), "test-api-key", "API key must not leak into errors")
}

func TestSearchFoods_InvalidJSON(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusOK, "invalid json"))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestSearchFoods_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"foods": []}`)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, WithTimeout(20*time.Millisecond))

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
}

func TestSearchFoods_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"foods": []}`)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchFoods(ctx, "granola", 3)

	assert.Error(t, err)
}

func TestSearchFoods_RequestCreationError(t *testing.T) {
	client := NewClient("test-api-key", "://bad-url")

	_, err := client.SearchFoods(context.Background(), "granola", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")
}

func TestGetFoodDetails_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/food/123456", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"fdcId": 123456,
			"description": "Milk Chocolate Bar",
			"ingredients": "SUGAR, COCOA BUTTER, MILK, SOY LECITHIN",
			"foodNutrients": [
				{"nutrient": {"name": "Protein", "unitName": "g"}, "amount": 7.5}
			],
			"labelNutrients": {"calories": {"value": 210}, "protein": {"value": 3}},
			"foodCategory": {"description": "Candy"}
		}`)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	food, err := client.GetFoodDetails(context.Background(), 123456)

	require.NoError(t, err)
	assert.Equal(t, int64(123456), food.FdcID)
	assert.Equal(t, "SUGAR, COCOA BUTTER, MILK, SOY LECITHIN", food.Ingredients.String())
	assert.Equal(t, "Candy", food.FoodCategory.String())
	require.Len(t, food.FoodNutrients, 1)
	assert.Equal(t, "Protein", food.FoodNutrients[0].NutrientName)
	assert.Equal(t, json.Number("7.5"), food.FoodNutrients[0].Value)
	require.Len(t, food.LabelNutrients, 2)
	assert.Equal(t, "calories", food.LabelNutrients[0].Key)
}

func TestGetFoodDetails_NotFound(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/food/999999",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := client.GetFoodDetails(context.Background(), 999999)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetFoodDetails_ServerError(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/food/1",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := client.GetFoodDetails(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestGetFoodDetails_InvalidJSON(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/food/1",
		httpmock.NewStringResponder(http.StatusOK, "{not json"))

	_, err := client.GetFoodDetails(context.Background(), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestClient_ObservesUpstreamCalls(t *testing.T) {
	observer := &recordingObserver{}
	client, transport := newMockedClient(t, WithObserver(observer))
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/foods/search",
		httpmock.NewStringResponder(http.StatusOK, `{"foods": [{"fdcId": 7}]}`))
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/food/7",
		httpmock.NewStringResponder(http.StatusBadGateway, ""))
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/v1/food/8",
		httpmock.NewErrorResponder(errors.New("reset by peer")))

	_, _ = client.SearchFoods(context.Background(), "tofu", 3)
	_, _ = client.GetFoodDetails(context.Background(), 7)
	_, _ = client.GetFoodDetails(context.Background(), 8)

	assert.Equal(t, []upstreamCall{
		{endpoint: EndpointSearch, status: http.StatusOK},
		{endpoint: EndpointDetail, status: http.StatusBadGateway},
		{endpoint: EndpointDetail, status: 0},
	}, observer.calls)
}

func TestReadLimitedBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		limit    int64
		expected string
	}{
		{name: "shorter than limit", body: "short", limit: 100, expected: "short"},
		{name: "exact limit", body: "12345", limit: 5, expected: "12345"},
		{name: "truncated", body: "1234567890", limit: 4, expected: "1234"},
		{name: "empty", body: "", limit: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readLimitedBody(strings.NewReader(tt.body), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestRedactURLError(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("outer: %w", &url.Error{Op: "Get", URL: "https://api.example.com?api_key=secret", Err: inner})

	assert.Equal(t, inner, redactURLError(wrapped))
	assert.Equal(t, inner, redactURLError(inner))
}

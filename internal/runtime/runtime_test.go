package runtime_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/SirCryptic/iv-proxy/internal/controllers/webhook"
	"github.com/SirCryptic/iv-proxy/internal/relay"
	"github.com/SirCryptic/iv-proxy/internal/runtime"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type destination struct {
	*httptest.Server
	hits    atomic.Int32
	content atomic.Value
}

func newDestination(t *testing.T, status int, body string) *destination {
	t.Helper()
	d := &destination{}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.hits.Add(1)
		var p relay.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		d.content.Store(p.Content)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(d.Close)
	return d
}

func newRuntime(t *testing.T, relayURL string, opts ...runtime.Option) *runtime.Runtime {
	t.Helper()
	ctl := webhook.NewController()
	forward, err := relay.NewHandler(relay.NewForward(), ctl)
	require.NoError(t, err)
	shape, err := relay.NewRelay(relayURL)
	require.NoError(t, err)
	chat, err := relay.NewHandler(shape, ctl)
	require.NoError(t, err)
	opts = append([]runtime.Option{
		runtime.WithRoute("/", forward),
		runtime.WithRoute("/relay", chat),
	}, opts...)
	return runtime.NewRuntime(opts...)
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		Name           string
		Method         string
		Target         func(dest string) string
		UpstreamStatus int
		UpstreamBody   string
		ExpectedStatus int
		ExpectedBody   string
		ExpectedHits   int32
	}{
		{
			Name:           "relay_success",
			Target:         func(string) string { return "/relay?value1=Alice&value2=Hello" },
			UpstreamStatus: http.StatusNoContent,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			ExpectedHits:   1,
		},
		{
			Name:           "relay_rejected",
			Target:         func(string) string { return "/relay?value1=Alice&value2=Hello" },
			UpstreamStatus: http.StatusBadRequest,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedBody:   "Failed to send to webhook",
			ExpectedHits:   1,
		},
		{
			Name:           "relay_missing_value",
			Target:         func(string) string { return "/relay?value1=Alice" },
			UpstreamStatus: http.StatusNoContent,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedBody:   "Missing value1 or value2",
		},
		{
			Name:           "forward_pass_through",
			Target:         func(dest string) string { return "/?webhook=" + dest + "&postData=hello" },
			UpstreamStatus: http.StatusTeapot,
			UpstreamBody:   "weird",
			ExpectedStatus: http.StatusTeapot,
			ExpectedBody:   "weird",
			ExpectedHits:   1,
		},
		{
			Name:           "forward_missing_webhook",
			Target:         func(string) string { return "/?postData=hello" },
			UpstreamStatus: http.StatusNoContent,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedBody:   `{"error":"Missing webhook or postData"}`,
		},
		{
			Name:           "method_not_allowed",
			Method:         http.MethodPost,
			Target:         func(string) string { return "/relay?value1=Alice&value2=Hello" },
			UpstreamStatus: http.StatusNoContent,
			ExpectedStatus: http.StatusMethodNotAllowed,
			ExpectedBody:   "Method Not Allowed",
		},
		{
			Name:           "unknown_path",
			Target:         func(string) string { return "/nope" },
			UpstreamStatus: http.StatusNoContent,
			ExpectedStatus: http.StatusNotFound,
			ExpectedBody:   "Not Found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			dest := newDestination(t, tc.UpstreamStatus, tc.UpstreamBody)
			rtm := newRuntime(t, dest.URL)
			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}

			rr := httptest.NewRecorder()
			rtm.ServeHTTP(rr, httptest.NewRequest(method, tc.Target(dest.URL), nil))

			assert.Equal(t, tc.ExpectedStatus, rr.Code)
			assert.Equal(t, tc.ExpectedBody, rr.Body.String())
			assert.Equal(t, tc.ExpectedHits, dest.hits.Load())
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestServeHTTP_RelayContent(t *testing.T) {
	dest := newDestination(t, http.StatusNoContent, "")
	rtm := newRuntime(t, dest.URL)

	rr := httptest.NewRecorder()
	rtm.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/relay?value1=Bob&value2=Hi+there", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bob said: Hi there", dest.content.Load())
}

func TestServeHTTP_TransportError(t *testing.T) {
	dest := newDestination(t, http.StatusNoContent, "")
	url := dest.URL
	dest.Close()
	rtm := newRuntime(t, url)

	rr := httptest.NewRecorder()
	rtm.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/relay?value1=Alice&value2=Hello", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error", rr.Body.String())
}

func TestServeHTTP_RequestID(t *testing.T) {
	dest := newDestination(t, http.StatusNoContent, "")
	rtm := newRuntime(t, dest.URL)

	req := httptest.NewRequest(http.MethodGet, "/relay?value1=Alice&value2=Hello", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	rtm.ServeHTTP(rr, req)

	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}

func TestHandleEvent(t *testing.T) {
	testCases := []struct {
		Name        string
		PayloadType string
		Event       any
		Check       func(t *testing.T, resp any)
	}{
		{
			Name:        "api_gateway_v1",
			PayloadType: runtime.PayloadAPIGatewayV1,
			Event: events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				Path:                  "/relay",
				QueryStringParameters: map[string]string{"value1": "Alice", "value2": "Hello"},
			},
			Check: func(t *testing.T, resp any) {
				r, ok := resp.(events.APIGatewayProxyResponse)
				require.True(t, ok)
				assert.Equal(t, http.StatusOK, r.StatusCode)
				assert.Equal(t, "OK", r.Body)
			},
		},
		{
			Name:        "api_gateway_v2",
			PayloadType: runtime.PayloadAPIGatewayV2,
			Event: events.APIGatewayV2HTTPRequest{
				RawPath:        "/relay",
				RawQueryString: "value1=Bob&value2=Hi%20there",
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet},
				},
			},
			Check: func(t *testing.T, resp any) {
				r, ok := resp.(events.APIGatewayV2HTTPResponse)
				require.True(t, ok)
				assert.Equal(t, http.StatusOK, r.StatusCode)
				assert.Equal(t, "OK", r.Body)
			},
		},
		{
			Name:        "lambda_url_missing_value",
			PayloadType: runtime.PayloadLambdaURL,
			Event: events.LambdaFunctionURLRequest{
				RawPath:               "/relay",
				QueryStringParameters: map[string]string{"value1": "Alice"},
				RequestContext: events.LambdaFunctionURLRequestContext{
					HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{Method: http.MethodGet},
				},
			},
			Check: func(t *testing.T, resp any) {
				r, ok := resp.(events.LambdaFunctionURLResponse)
				require.True(t, ok)
				assert.Equal(t, http.StatusBadRequest, r.StatusCode)
				assert.Equal(t, "Missing value1 or value2", r.Body)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			dest := newDestination(t, http.StatusNoContent, "")
			rtm := newRuntime(t, dest.URL, runtime.WithLambdaPayloadType(tc.PayloadType))
			payload, err := json.Marshal(tc.Event)
			require.NoError(t, err)

			resp, err := rtm.HandleEvent(context.Background(), payload)

			require.NoError(t, err)
			tc.Check(t, resp)
		})
	}
}

func TestHandleEvent_UnsupportedPayloadType(t *testing.T) {
	rtm := runtime.NewRuntime(runtime.WithLambdaPayloadType("sqs"))

	_, err := rtm.HandleEvent(context.Background(), json.RawMessage(`{}`))

	assert.Error(t, err)
}

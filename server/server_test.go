package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/omnichat/telegram-adapter/authflow"
	fakecredrepo "github.com/omnichat/telegram-adapter/credstore/repofake"
	"github.com/omnichat/telegram-adapter/internal/config"
	"github.com/omnichat/telegram-adapter/registry"
	"github.com/omnichat/telegram-adapter/server"
	"github.com/omnichat/telegram-adapter/tgclient/clientfakes"
)

type testFixture struct {
	dialer *clientfakes.FakeDialer
	creds  *fakecredrepo.FakeCredRepo
	flow   *authflow.Service
	ts     *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST") // keep route logging quiet

	creds := fakecredrepo.NewFakeCredRepo()
	dialer := clientfakes.NewFakeDialer()
	reg := registry.New(dialer, nil, zerolog.Nop())

	flow, err := authflow.NewService(creds, reg, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(config.New(), flow, zerolog.Nop()))
	t.Cleanup(ts.Close)

	return &testFixture{dialer: dialer, creds: creds, flow: flow, ts: ts}
}

func (f *testFixture) postConnect(t *testing.T, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.ts.URL+"/connect", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (f *testFixture) getJSON(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestConnectRequiresSessionID(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.postConnect(t, `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "sessionId required", body["error"])
}

func TestConnectRejectsMalformedBody(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.postConnect(t, `{"sessionId":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnectStartsQRLogin(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.postConnect(t, `{"sessionId":"acct1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "qr_generated", body["status"])
}

func TestConnectReportsConnectedWhenAlreadyAuthorized(t *testing.T) {
	f := setupTestFixture(t)
	f.dialer.Prepare("acct1").SetAuthorized(true)

	resp, body := f.postConnect(t, `{"sessionId":"acct1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "connected", body["status"])
}

func TestQRPollLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.postConnect(t, `{"sessionId":"acct1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.dialer.Client("acct1").EmitToken("tg://login?token=abc")

	resp, body := f.getJSON(t, "/qr/acct1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "waiting_scan", body["status"])
	qr, ok := body["qr"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))

	f.dialer.Client("acct1").CompleteScan("session-blob")

	resp, body = f.getJSON(t, "/qr/acct1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "connected", body["status"])
	require.Nil(t, body["qr"])
}

func TestQRPollUnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.getJSON(t, "/qr/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["status"])
}

func TestStatusReportsActiveSessions(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.getJSON(t, "/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(0), body["active_sessions"])

	_, _ = f.postConnect(t, `{"sessionId":"acct1"}`)
	_, _ = f.postConnect(t, `{"sessionId":"acct2"}`)

	resp, body = f.getJSON(t, "/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2), body["active_sessions"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rest

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerfleet/hmcreport/hmc"
)

const token = "4pXs7WTArK9q0dImNVGLc2cS7JGiMvFoKYMhtKhB"

func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func newHMCServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/web/Logon":
			if r.Method == http.MethodDelete {
				if r.Header.Get("X-API-Session") != token {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "<Password>goodpass</Password>") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("X-API-Session", token)
			w.WriteHeader(http.StatusOK)
		case "/rest/api/uom/ManagedSystem":
			if r.Header.Get("X-API-Session") != token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`<feed><entry><SystemName>p950-prod-01</SystemName></entry></feed>`))
		case "/rest/api/uom/LogicalPartition":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func Test_Logon_TokenFromHeader(t *testing.T) {
	server := newHMCServer(t)
	host, port := hostPort(t, server.URL)

	s, err := Logon(context.Background(), host, port, "hscroot", "goodpass", false, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, token, s.token)

	raw, err := s.FetchManagedSystems(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "p950-prod-01")

	// kinds the HMC has nothing of answer 204 and yield an empty body
	raw, err = s.FetchLogicalPartitions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, s.Logoff(context.Background()))
	assert.Empty(t, s.token)
	// a second logoff on a dead session is a no-op
	require.NoError(t, s.Logoff(context.Background()))
}

func Test_Logoff_HonorsContext(t *testing.T) {
	server := newHMCServer(t)
	host, port := hostPort(t, server.URL)

	s, err := Logon(context.Background(), host, port, "hscroot", "goodpass", false, 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Logoff(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// the token survives a failed logoff so a later attempt can still
	// invalidate it
	require.NoError(t, s.Logoff(context.Background()))
	assert.Empty(t, s.token)
}

func Test_Logon_TokenFromBody(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<LogonResponse><X-API-Session>` + token + `</X-API-Session></LogonResponse>`))
	}))
	t.Cleanup(server.Close)
	host, port := hostPort(t, server.URL)

	s, err := Logon(context.Background(), host, port, "hscroot", "goodpass", false, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, token, s.token)
}

func Test_Logon_BadCredentials(t *testing.T) {
	server := newHMCServer(t)
	host, port := hostPort(t, server.URL)

	_, err := Logon(context.Background(), host, port, "hscroot", "wrong", false, 5*time.Second)
	require.Error(t, err)

	var authErr *hmc.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, hmc.ReasonInvalidCredentials, authErr.Reason)
	assert.Equal(t, host, authErr.Host)
}

func Test_Logon_TLSValidation(t *testing.T) {
	server := newHMCServer(t)
	host, port := hostPort(t, server.URL)

	// the test server's certificate is self-signed, so verification on
	// means the dial is classified as a TLS failure
	_, err := Logon(context.Background(), host, port, "hscroot", "goodpass", true, 5*time.Second)
	require.Error(t, err)

	var authErr *hmc.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, hmc.ReasonTLSValidation, authErr.Reason)
}

func Test_Get_SessionRejectedMidRun(t *testing.T) {
	server := newHMCServer(t)
	host, port := hostPort(t, server.URL)

	s, err := Logon(context.Background(), host, port, "hscroot", "goodpass", false, 5*time.Second)
	require.NoError(t, err)

	s.token = "expired"
	_, err = s.FetchManagedSystems(context.Background())
	require.Error(t, err)

	var authErr *hmc.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, hmc.ReasonInvalidCredentials, authErr.Reason)
}

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

// Package rest implements the HMC session contract over the HMC REST API.
package rest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/powerfleet/hmcreport/config"
	"github.com/powerfleet/hmcreport/hmc"
)

// Endpoint paths are fixed by the HMC REST API and must not be altered.
const (
	logonPath          = "/rest/api/web/Logon"
	managedSystemPath  = "/rest/api/uom/ManagedSystem"
	logicalPartPath    = "/rest/api/uom/LogicalPartition"
	ioAdapterPath      = "/rest/api/uom/IOAdapter"
	sessionTokenHeader = "X-API-Session"

	logonContentType = "application/vnd.ibm.powervm.web+xml; type=LogonRequest"
)

type logonRequest struct {
	XMLName       xml.Name `xml:"LogonRequest"`
	Namespace     string   `xml:"xmlns,attr"`
	SchemaVersion string   `xml:"schemaVersion,attr"`
	UserID        string   `xml:"UserID"`
	Password      string   `xml:"Password"`
}

type logonResponse struct {
	XMLName xml.Name `xml:"LogonResponse"`
	Token   string   `xml:"X-API-Session"`
}

// Session is an authenticated HMC REST API session. The token returned by the
// logon call is attached to every request and invalidated again by Logoff.
type Session struct {
	base   *url.URL
	host   string
	token  string
	client *retryablehttp.Client
	log    *zap.Logger
}

// Logon authenticates against POST /rest/api/web/Logon and returns a live
// session. Failures are classified into the auth error taxonomy; there are no
// internal retries beyond the transport's own policy.
func Logon(ctx context.Context, host string, port int, user, pass string, validateCerts bool, timeout time.Duration) (*Session, error) {
	scheme := config.GetConfig().HMCScheme
	if scheme == "" {
		scheme = "https"
	}
	base := &url.URL{
		Scheme: scheme,
		Host:   host + ":" + strconv.Itoa(port),
	}

	s := &Session{
		base:   base,
		host:   host,
		client: newHTTPClient(validateCerts, timeout),
		log:    zap.L(),
	}

	body, err := xml.Marshal(logonRequest{
		Namespace:     "http://www.ibm.com/xmlns/systems/power/firmware/web/mc/2012_10/",
		SchemaVersion: "V1_0",
		UserID:        user,
		Password:      pass,
	})
	if err != nil {
		return nil, fmt.Errorf("error building logon request - %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, base.String()+logonPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build logon request - %w", err)
	}
	req.Header.Set("Content-Type", logonContentType)
	req.Header.Set("Accept", "application/vnd.ibm.powervm.web+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, hmc.ClassifyDialError(host, err)
	}
	defer emptyAndCloseBody(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, hmc.NewAuthError(host, hmc.ReasonInvalidCredentials, fmt.Errorf("HTTP status %d", resp.StatusCode))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, hmc.NewAuthError(host, hmc.ReasonNetworkUnreachable, fmt.Errorf("HTTP status %d", resp.StatusCode))
	}

	// the token is normally surfaced in the X-API-Session response header,
	// older HMC levels only place it in the response body
	s.token = resp.Header.Get(sessionTokenHeader)
	if s.token == "" {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, hmc.NewAuthError(host, hmc.ReasonNetworkUnreachable, fmt.Errorf("error reading logon response body - %w", err))
		}
		var lr logonResponse
		if err := xml.Unmarshal(raw, &lr); err != nil || lr.Token == "" {
			return nil, hmc.NewAuthError(host, hmc.ReasonInvalidCredentials, fmt.Errorf("logon response carried no session token"))
		}
		s.token = lr.Token
	}

	return s, nil
}

// FetchManagedSystems retrieves the raw managed system feed.
func (s *Session) FetchManagedSystems(ctx context.Context) ([]byte, error) {
	return s.get(ctx, managedSystemPath)
}

// FetchLogicalPartitions retrieves the raw logical partition feed.
func (s *Session) FetchLogicalPartitions(ctx context.Context) ([]byte, error) {
	return s.get(ctx, logicalPartPath)
}

// FetchIOAdapters retrieves the raw I/O adapter feed.
func (s *Session) FetchIOAdapters(ctx context.Context) ([]byte, error) {
	return s.get(ctx, ioAdapterPath)
}

// Logoff invalidates the session token. It is safe to call on a session whose
// logon never completed.
func (s *Session) Logoff(ctx context.Context) error {
	if s.token == "" {
		return nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, s.base.String()+logonPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build logoff request - %w", err)
	}
	req.Header.Set(sessionTokenHeader, s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("logoff call to %s failed - %w", s.host, err)
	}
	emptyAndCloseBody(resp)

	s.token = ""
	return nil
}

func (s *Session) get(ctx context.Context, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.base.String()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request - %w", err)
	}
	req.Header.Set(sessionTokenHeader, s.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer emptyAndCloseBody(resp)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, hmc.NewAuthError(s.host, hmc.ReasonInvalidCredentials, fmt.Errorf("session rejected on %s", path))
	}
	// an HMC with nothing of a given kind answers 204
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("HTTP status %d on %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body - %w", err)
	}
	return body, nil
}

// This is required to have a proper cleanup of the response body
// to have correctly working keep-alive connections
func emptyAndCloseBody(resp *http.Response) {
	if resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

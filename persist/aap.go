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

package persist

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// AAP posts JSON artifacts to an Ansible Automation Platform job-launch
// endpoint as extra_vars, so downstream playbooks can act on fresh inventory.
// Only JSON artifacts are forwarded; other formats come back as ErrSkipped.
type AAP struct {
	url    string
	token  string
	client *retryablehttp.Client
}

func NewAAP(url, token string, skipVerify bool, timeout time.Duration) *AAP {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.CheckRetry = retryablehttp.ErrorPropagatedRetryPolicy
	client.RetryMax = 2
	client.RetryWaitMin = 2 * time.Second
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.HTTPClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: skipVerify},
	}
	return &AAP{url: url, token: token, client: client}
}

func (a *AAP) Name() string { return "aap" }

func (a *AAP) Store(ctx context.Context, art Artifact) error {
	if art.ContentType != "application/json" {
		return ErrSkipped
	}

	payload, err := json.Marshal(map[string]interface{}{
		"extra_vars": map[string]interface{}{
			"hmc":       art.HMCIdentifier,
			"filename":  art.Filename,
			"inventory": json.RawMessage(art.Bytes),
		},
	})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, a.url)
	}
	return nil
}

/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
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

package common

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	hmc_vault "github.com/powerfleet/hmcreport/vault"
)

var (
	// HMCCreds caches decrypted credentials per HMC identifier for the
	// lifetime of the run. Reads fall through to vault when configured.
	HMCCreds = HMCCredentials{
		Creds: make(map[string]*Credential),
	}

	ErrInvalidCredential = errors.New("invalid credential")

	log *zap.Logger
)

type HMCCredentials struct {
	mu    sync.Mutex
	Creds map[string]*Credential
	Vault *hmc_vault.Vault
}

type Credential struct {
	User string
	Pass string
}

func (c *HMCCredentials) Get(key string) (*Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.Creds[key]
	return val, ok
}

func (c *HMCCredentials) Set(key string, value *Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Creds[key] = value
}

func (c *HMCCredentials) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Creds, key)
}

// GetCredentials retrieves the username and password for a target HMC from
// vault, using the field names configured in the named credential profile.
func (c *HMCCredentials) GetCredentials(ctx context.Context, profile, target string) (*Credential, error) {
	var credential *Credential
	var ok bool
	var user, pass string

	log = zap.L()

	if c.Vault == nil {
		log.Error("issue retrieving credentials from vault using target "+target, zap.Error(fmt.Errorf("vault client not configured")))
		return credential, fmt.Errorf("issue retrieving credentials from vault using target: %s", target)
	}

	props, err := GetCredentialProfile(profile)
	if err != nil {
		return credential, err
	}

	secret, err := c.Vault.GetKVSecret(ctx, props, target)
	if err != nil {
		log.Error("issue retrieving credentials from vault using target "+target, zap.Error(err))
		return credential, fmt.Errorf("issue retrieving credentials from vault using target: %s", target)
	}

	if user, ok = secret.Data[props.UserField].(string); !ok {
		return credential, fmt.Errorf("the secret retrieved from vault using target %s is missing the %q field", target, props.UserField)
	}

	if pass, ok = secret.Data[props.PasswordField].(string); !ok {
		return credential, fmt.Errorf("the secret retrieved from vault using target %s is missing the %q field", target, props.PasswordField)
	}

	credential = &Credential{
		User: user,
		Pass: pass,
	}

	return credential, nil
}

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

// Package hmc defines the session contract shared by the REST and CLI
// transports, along with the authentication error taxonomy.
package hmc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
)

// Session is an authenticated channel to one HMC. Each fetch is atomic from
// the caller's perspective: either the complete raw payload for that resource
// kind is returned, or an error and nothing is passed downstream. Logoff must
// be called on every exit path.
type Session interface {
	FetchManagedSystems(ctx context.Context) ([]byte, error)
	FetchLogicalPartitions(ctx context.Context) ([]byte, error)
	FetchIOAdapters(ctx context.Context) ([]byte, error)
	Logoff(ctx context.Context) error
}

// AuthReason classifies why authentication to an HMC failed.
type AuthReason string

const (
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	ReasonNetworkUnreachable AuthReason = "network_unreachable"
	ReasonTLSValidation      AuthReason = "tls_validation_failed"
	ReasonTimeout            AuthReason = "timeout"
)

// AuthError is fatal to one HMC's pipeline only. It carries no retry
// semantics; retry policy belongs to the orchestrator.
type AuthError struct {
	Host   string
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "authentication to " + e.Host + " failed (" + string(e.Reason) + "): " + e.Err.Error()
	}
	return "authentication to " + e.Host + " failed (" + string(e.Reason) + ")"
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError builds an AuthError with an explicit reason.
func NewAuthError(host string, reason AuthReason, err error) *AuthError {
	return &AuthError{Host: host, Reason: reason, Err: err}
}

// ClassifyDialError maps transport-level failures onto the auth error
// taxonomy. Credential failures are protocol-specific and classified by the
// callers instead.
func ClassifyDialError(host string, err error) *AuthError {
	var (
		netErr       net.Error
		certErr      *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		certInvalid  x509.CertificateInvalidError
		recordHeader tls.RecordHeaderError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewAuthError(host, ReasonTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewAuthError(host, ReasonTimeout, err)
	case errors.As(err, &certErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &certInvalid),
		errors.As(err, &recordHeader):
		return NewAuthError(host, ReasonTLSValidation, err)
	default:
		return NewAuthError(host, ReasonNetworkUnreachable, err)
	}
}

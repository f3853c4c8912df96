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

// Package cli implements the HMC session contract over an SSH command
// channel, driving the lssyscfg/lshwres utilities on the console itself.
package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/powerfleet/hmcreport/hmc"
)

// Command syntax is fixed by the HMC restricted shell and must not be
// altered: the extractor depends on these exact field orders.
const (
	probeCmd       = "lshmc -V"
	listSystemsCmd = "lssyscfg -r sys -F name,serial_num,type_model,state,system_firmware"
	listLparsCmd   = "lssyscfg -r lpar -F name,lpar_id,serial_num,state,os_version,curr_mem,curr_proc_units"
	listSlotsCmd   = "lshwres -r io --rsubtype slot -F drc_name,description,phys_loc"
)

// Session is a validated SSH connection to an HMC. There is no explicit logon
// exchange; the connection itself is the session, and it is only handed out
// once a trivial probe command has succeeded.
type Session struct {
	client *ssh.Client
	host   string
	log    *zap.Logger
}

// Dial connects, authenticates with a password, and validates the connection
// with a probe command. All failures surface as AuthError, classified by
// cause.
func Dial(ctx context.Context, host string, port int, user, pass string, timeout time.Duration) (*Session, error) {
	cfg := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
		},
		// HMC appliances rotate host keys on reinstall; pinning is left to
		// the operator's known_hosts tooling
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, hmc.NewAuthError(host, hmc.ReasonInvalidCredentials, err)
		}
		return nil, hmc.ClassifyDialError(host, err)
	}

	s := &Session{
		client: client,
		host:   host,
		log:    zap.L(),
	}

	if _, err := s.run(ctx, probeCmd); err != nil {
		s.client.Close()
		return nil, hmc.NewAuthError(host, hmc.ReasonInvalidCredentials, fmt.Errorf("probe command failed - %w", err))
	}

	return s, nil
}

// FetchManagedSystems lists managed systems in fixed comma-separated form.
func (s *Session) FetchManagedSystems(ctx context.Context) ([]byte, error) {
	return s.run(ctx, listSystemsCmd)
}

// FetchLogicalPartitions lists logical partitions in fixed comma-separated form.
func (s *Session) FetchLogicalPartitions(ctx context.Context) ([]byte, error) {
	return s.run(ctx, listLparsCmd)
}

// FetchIOAdapters lists I/O slots in fixed comma-separated form.
func (s *Session) FetchIOAdapters(ctx context.Context) ([]byte, error) {
	return s.run(ctx, listSlotsCmd)
}

// Logoff closes the SSH connection. The context is part of the session
// contract; closing the TCP connection does not block on it.
func (s *Session) Logoff(_ context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// run executes one command on a fresh SSH session. The HMC restricted shell
// only allows one command per session.
func (s *Session) run(ctx context.Context, cmd string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("error opening ssh session on %s - %w", s.host, err)
	}
	defer sess.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.Output(cmd)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		// the session close tears down the in-flight command
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("command %q failed on %s - %w", cmd, s.host, r.err)
		}
		return r.out, nil
	}
}

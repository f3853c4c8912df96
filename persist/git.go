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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitRepo commits artifacts into a working copy of an existing repository
// and optionally pushes the commit upstream.
type GitRepo struct {
	repoPath   string
	subdir     string
	remote     string
	push       bool
	authorName string
	authorMail string
	token      string
}

type GitOpt func(g *GitRepo)

func WithGitSubdir(subdir string) GitOpt {
	return func(g *GitRepo) { g.subdir = subdir }
}

func WithGitPush(remote, token string) GitOpt {
	return func(g *GitRepo) {
		g.push = true
		g.remote = remote
		g.token = token
	}
}

func WithGitAuthor(name, email string) GitOpt {
	return func(g *GitRepo) {
		g.authorName = name
		g.authorMail = email
	}
}

func NewGitRepo(repoPath string, opts ...GitOpt) (*GitRepo, error) {
	g := &GitRepo{
		repoPath:   repoPath,
		remote:     "origin",
		authorName: "hmcreport",
		authorMail: "hmcreport@localhost",
	}
	for _, o := range opts {
		o(g)
	}
	// fail early if the path is not a repository
	if _, err := git.PlainOpen(repoPath); err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", repoPath, err)
	}
	return g, nil
}

func (g *GitRepo) Name() string { return "git" }

func (g *GitRepo) Store(ctx context.Context, a Artifact) error {
	repo, err := git.PlainOpen(g.repoPath)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	rel := a.Filename
	if g.subdir != "" {
		rel = filepath.Join(g.subdir, a.Filename)
		if err := os.MkdirAll(filepath.Join(g.repoPath, g.subdir), 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(g.repoPath, rel), a.Bytes, 0o644); err != nil {
		return err
	}
	if _, err := wt.Add(rel); err != nil {
		return err
	}

	_, err = wt.Commit(fmt.Sprintf("inventory report %s for %s", a.Filename, a.HMCIdentifier), &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.authorName,
			Email: g.authorMail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return err
	}

	if !g.push {
		return nil
	}
	pushOpts := &git.PushOptions{
		RemoteName: g.remote,
		RefSpecs:   []gitcfg.RefSpec{"refs/heads/*:refs/heads/*"},
	}
	if g.token != "" {
		pushOpts.Auth = &http.BasicAuth{Username: "token", Password: g.token}
	}
	if err := repo.PushContext(ctx, pushOpts); err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

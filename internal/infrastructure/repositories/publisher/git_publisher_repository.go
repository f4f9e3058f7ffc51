package publisher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// GitPublisherRepository stages the regenerated output, commits it and pushes
// it to the hosting remote.
type GitPublisherRepository struct {
	workspace string
	settings  entities.PublishSettings
	internal  []string // absolute paths sitedeploy writes itself, never published
	clock     func() time.Time
}

// NewPublisherRepository creates a publisher for the git checkout containing workspace.
func NewPublisherRepository(
	workspace string, settings entities.PublishSettings, internal ...string,
) *GitPublisherRepository {
	return &GitPublisherRepository{
		workspace: workspace,
		settings:  settings,
		internal:  internal,
		clock:     time.Now,
	}
}

// Publish commits the kind's paths and pushes. A tree with nothing new to
// commit still pushes, so a commit stranded by an earlier failed push reaches
// the remote; when the remote is already up to date nothing is published.
func (it *GitPublisherRepository) Publish(
	ctx context.Context, kind entities.DeploymentKind, message string,
) (repositories.PublishResult, error) {
	if !it.settings.Enabled {
		logger.Info("Publishing is disabled, skipping commit and push")
		return repositories.PublishResult{}, nil
	}

	repo, err := git.PlainOpenWithOptions(it.workspace, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return repositories.PublishResult{}, failed("open repository", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return repositories.PublishResult{}, failed("open worktree", err)
	}

	if err = it.checkBranch(repo); err != nil {
		return repositories.PublishResult{}, err
	}

	staged, err := it.stage(wt, kind)
	if err != nil {
		return repositories.PublishResult{}, err
	}
	if !staged {
		logger.Infof("No %s changes to commit", kind)
		return it.pushPending(ctx, repo)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  it.settings.Author.Name,
			Email: it.settings.Author.Email,
			When:  it.clock(),
		},
	})
	if err != nil {
		return repositories.PublishResult{}, failed("commit", err)
	}
	logger.Infof("Committed %q as %s", message, hash.String()[:8])

	if _, err = it.push(ctx, repo); err != nil {
		return repositories.PublishResult{Commit: hash.String()}, err
	}
	return repositories.PublishResult{Published: true, Commit: hash.String()}, nil
}

// pushPending pushes local commits the remote has not received yet.
func (it *GitPublisherRepository) pushPending(
	ctx context.Context, repo *git.Repository,
) (repositories.PublishResult, error) {
	head, err := repo.Head()
	if err != nil {
		return repositories.PublishResult{}, failed("resolve HEAD", err)
	}
	pushed, err := it.push(ctx, repo)
	if err != nil || !pushed {
		return repositories.PublishResult{}, err
	}
	logger.Infof("Pushed pending commit %s", head.Hash().String()[:8])
	return repositories.PublishResult{Published: true, Commit: head.Hash().String()}, nil
}

func (it *GitPublisherRepository) checkBranch(repo *git.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return failed("resolve HEAD", err)
	}
	if !head.Name().IsBranch() || head.Name().Short() != it.settings.Branch {
		return fmt.Errorf("%w: checkout is on %q, expected branch %q",
			entities.ErrExternalActionFailed, head.Name().Short(), it.settings.Branch)
	}
	return nil
}

// stage adds every changed file under the kind's publish paths and reports
// whether the index now differs from HEAD.
func (it *GitPublisherRepository) stage(wt *git.Worktree, kind entities.DeploymentKind) (bool, error) {
	root := wt.Filesystem.Root()
	scopes, err := it.relativeTo(root, it.settings.PathsFor(kind))
	if err != nil {
		return false, err
	}
	internal, err := it.relativeTo(root, it.internal)
	if err != nil {
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, failed("read status", err)
	}
	for file, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified || !within(file, scopes) || within(file, internal) {
			continue
		}
		if fileStatus.Worktree == git.Deleted {
			_, err = wt.Remove(file)
		} else {
			_, err = wt.Add(file)
		}
		if err != nil {
			return false, failed("stage "+file, err)
		}
		logger.Debugf("Staged %s", file)
	}

	status, err = wt.Status()
	if err != nil {
		return false, failed("read status", err)
	}
	for _, fileStatus := range status {
		if fileStatus.Staging != git.Unmodified && fileStatus.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// push reports whether the remote received anything.
func (it *GitPublisherRepository) push(ctx context.Context, repo *git.Repository) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, it.settings.Timeout)
	defer cancel()

	ref := plumbing.NewBranchReferenceName(it.settings.Branch)
	opts := &git.PushOptions{
		RemoteName: it.settings.Remote,
		RefSpecs:   []gitcfg.RefSpec{gitcfg.RefSpec(ref + ":" + ref)},
		Auth:       it.auth(),
	}
	err := repo.PushContext(ctx, opts)
	switch {
	case err == nil:
		logger.Infof("Pushed %s to %s", it.settings.Branch, it.settings.Remote)
		return true, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return false, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return false, fmt.Errorf("%w: push after %s", entities.ErrExternalActionTimeout, it.settings.Timeout)
	default:
		return false, failed("push", err)
	}
}

func (it *GitPublisherRepository) auth() transport.AuthMethod {
	if it.settings.Token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "token", // GitHub/GitLab accept any username with a token
		Password: it.settings.Token,
	}
}

// relativeTo turns workspace-relative or absolute paths into slash-separated
// paths relative to the worktree root.
func (it *GitPublisherRepository) relativeTo(root string, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(it.workspace, p)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %q is outside the repository", entities.ErrExternalActionFailed, p)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func within(file string, scopes []string) bool {
	for _, scope := range scopes {
		if scope == "." || file == scope || strings.HasPrefix(file, scope+"/") {
			return true
		}
	}
	return false
}

func failed(step string, err error) error {
	return fmt.Errorf("%w: git %s: %w", entities.ErrExternalActionFailed, step, err)
}

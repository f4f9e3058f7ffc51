//go:build unit

package publisher_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/publisher"
)

// siteRepo is a checkout on main with one commit, already pushed to a bare
// "origin" remote.
type siteRepo struct {
	dir    string
	remote string
	repo   *git.Repository
}

func newSiteRepo(t *testing.T) *siteRepo {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "site")
	remote := filepath.Join(base, "origin.git")

	_, err := git.PlainInitWithOptions(remote, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
		Bare:        true,
	})
	require.NoError(t, err)
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{remote}})
	require.NoError(t, err)

	site := &siteRepo{dir: dir, remote: remote, repo: repo}
	site.write(t, "building_reports/index.html", "home-v1")
	site.write(t, "building_reports/a.html", "a-v1")
	site.write(t, "building_reports/b.html", "b-v1")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddGlob("."))
	_, err = wt.Commit("Initial import", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@localhost", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{RemoteName: "origin"}))
	return site
}

func (s *siteRepo) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(s.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (s *siteRepo) settings() entities.PublishSettings {
	return entities.PublishSettings{
		Enabled:       true,
		Remote:        "origin",
		Branch:        "main",
		Timeout:       30 * time.Second,
		Author:        entities.AuthorSettings{Name: "sitedeploy", Email: "sitedeploy@localhost"},
		HomepagePaths: []string{"building_reports/index.html"},
		ReportsPaths:  []string{"."},
	}
}

func (s *siteRepo) remoteHead(t *testing.T) string {
	t.Helper()
	remote, err := git.PlainOpen(s.remote)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("main"), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return ""
	}
	require.NoError(t, err)
	return ref.Hash().String()
}

func (s *siteRepo) committedFile(t *testing.T, commit, rel string) (string, bool) {
	t.Helper()
	tree, err := s.repo.CommitObject(plumbing.NewHash(commit))
	require.NoError(t, err)
	file, err := tree.File(rel)
	if err != nil {
		return "", false
	}
	content, err := file.Contents()
	require.NoError(t, err)
	return content, true
}

func TestGitPublisherRepositoryPublish(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should commit only the homepage paths and push them", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		site.write(t, "building_reports/index.html", "home-v2")
		site.write(t, "building_reports/a.html", "a-v2")
		repo := publisher.NewPublisherRepository(site.dir, site.settings())
		repo.SetClock(func() time.Time { return now })

		// when
		result, err := repo.Publish(context.Background(), entities.KindHomepage, "Homepage update: 2026-03-01 12:00:00")

		// then
		require.NoError(t, err)
		assert.True(t, result.Published)
		assert.Equal(t, result.Commit, site.remoteHead(t))
		homepage, _ := site.committedFile(t, result.Commit, "building_reports/index.html")
		assert.Equal(t, "home-v2", homepage)
		report, _ := site.committedFile(t, result.Commit, "building_reports/a.html")
		assert.Equal(t, "a-v1", report)

		commit, commitErr := site.repo.CommitObject(plumbing.NewHash(result.Commit))
		require.NoError(t, commitErr)
		assert.Equal(t, "Homepage update: 2026-03-01 12:00:00", commit.Message)
		assert.Equal(t, "sitedeploy", commit.Author.Name)
		assert.True(t, now.Equal(commit.Author.When))
	})

	t.Run("should publish new modified and deleted report files", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		site.write(t, "building_reports/a.html", "a-v2")
		site.write(t, "building_reports/2026/c.html", "c-v1")
		require.NoError(t, os.Remove(filepath.Join(site.dir, "building_reports", "b.html")))
		repo := publisher.NewPublisherRepository(site.dir, site.settings())

		// when
		result, err := repo.Publish(context.Background(), entities.KindReports, "Reports update: 2026-03-01 12:00:00")

		// then
		require.NoError(t, err)
		assert.True(t, result.Published)
		report, _ := site.committedFile(t, result.Commit, "building_reports/a.html")
		assert.Equal(t, "a-v2", report)
		_, added := site.committedFile(t, result.Commit, "building_reports/2026/c.html")
		assert.True(t, added)
		_, kept := site.committedFile(t, result.Commit, "building_reports/b.html")
		assert.False(t, kept)
	})

	t.Run("should never publish its own bookkeeping files", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		site.write(t, ".sitedeploy/state.json", "{}")
		site.write(t, "building_reports/a.html", "a-v2")
		repo := publisher.NewPublisherRepository(site.dir, site.settings(), filepath.Join(site.dir, ".sitedeploy"))

		// when
		result, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.NoError(t, err)
		_, leaked := site.committedFile(t, result.Commit, ".sitedeploy/state.json")
		assert.False(t, leaked)
	})

	t.Run("should succeed without a commit when nothing changed", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		pushed := site.remoteHead(t)
		repo := publisher.NewPublisherRepository(site.dir, site.settings())

		// when
		result, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.NoError(t, err)
		assert.False(t, result.Published)
		assert.Empty(t, result.Commit)
		assert.Equal(t, pushed, site.remoteHead(t))
	})

	t.Run("should push a commit left behind by a failed push on the next attempt", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		hidden := site.remote + ".offline"
		require.NoError(t, os.Rename(site.remote, hidden))
		site.write(t, "building_reports/index.html", "home-v2")
		repo := publisher.NewPublisherRepository(site.dir, site.settings())
		first, firstErr := repo.Publish(context.Background(), entities.KindHomepage, "Homepage update")
		require.ErrorIs(t, firstErr, entities.ErrExternalActionFailed)
		require.NotEmpty(t, first.Commit)
		require.NoError(t, os.Rename(hidden, site.remote))

		// when
		result, err := repo.Publish(context.Background(), entities.KindHomepage, "Homepage update")

		// then
		require.NoError(t, err)
		assert.True(t, result.Published)
		assert.Equal(t, first.Commit, result.Commit)
		assert.Equal(t, first.Commit, site.remoteHead(t))
	})

	t.Run("should do nothing when publishing is disabled", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		site.write(t, "building_reports/a.html", "a-v2")
		settings := site.settings()
		settings.Enabled = false
		repo := publisher.NewPublisherRepository(site.dir, settings)

		// when
		result, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.NoError(t, err)
		assert.False(t, result.Published)
		head, headErr := site.repo.Head()
		require.NoError(t, headErr)
		commit, commitErr := site.repo.CommitObject(head.Hash())
		require.NoError(t, commitErr)
		assert.Equal(t, "Initial import", commit.Message)
	})

	t.Run("should refuse to publish from another branch", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		settings := site.settings()
		settings.Branch = "gh-pages"
		repo := publisher.NewPublisherRepository(site.dir, settings)

		// when
		_, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.ErrorIs(t, err, entities.ErrExternalActionFailed)
		assert.Contains(t, err.Error(), `expected branch "gh-pages"`)
	})

	t.Run("should fail when the push is rejected", func(t *testing.T) {
		t.Parallel()

		// given
		site := newSiteRepo(t)
		require.NoError(t, os.RemoveAll(site.remote))
		site.write(t, "building_reports/a.html", "a-v2")
		repo := publisher.NewPublisherRepository(site.dir, site.settings())

		// when
		result, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.ErrorIs(t, err, entities.ErrExternalActionFailed)
		assert.Contains(t, err.Error(), "git push")
		assert.False(t, result.Published)
		assert.NotEmpty(t, result.Commit)
	})

	t.Run("should fail outside a git repository", func(t *testing.T) {
		t.Parallel()

		// given
		repo := publisher.NewPublisherRepository(t.TempDir(), entities.PublishSettings{Enabled: true, Branch: "main"})

		// when
		_, err := repo.Publish(context.Background(), entities.KindReports, "Reports update")

		// then
		require.ErrorIs(t, err, entities.ErrExternalActionFailed)
		assert.Contains(t, err.Error(), "open repository")
	})
}

package collection

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"go.uber.org/zap"
)

const remoteName = "origin"

// ErrNoRepository reports a collection that has no git repository initialized.
var ErrNoRepository = errors.New("the collection does not have a git repository initialized")

var remoteURLPattern = regexp.MustCompile(`((git|ssh|http(s)?)|(git@[\w\.]+))(:(//)?)([\w\.@\:/\-~]+)(\.git)(/)?`)

// ValidRemoteURL reports whether url looks like a git remote.
func ValidRemoteURL(url string) bool {
	return remoteURLPattern.MatchString(url)
}

// Repository is the git repository backing a collection.
type Repository struct {
	logger  *zap.Logger
	repo    *git.Repository
	path    string
	keyPath string
}

// InitRepository creates a repository at path with remote as origin and commits
// whatever the directory already holds.
func InitRepository(logger *zap.Logger, path, remote, keyPath string) (*Repository, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, gitError("collection.init", path, err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: remoteName, URLs: []string{remote}}); err != nil {
		return nil, gitError("collection.init", path, err)
	}

	r := &Repository{logger: logger, repo: repo, path: path, keyPath: keyPath}
	if err := r.CommitAll("Initial commit"); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenRepository opens the repository at path, returning ErrNoRepository if there is none.
func OpenRepository(logger *zap.Logger, path, keyPath string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, gitError("collection.open", path, err)
	}
	return &Repository{logger: logger, repo: repo, path: path, keyPath: keyPath}, nil
}

// CloneRepository clones url into path.
func CloneRepository(ctx context.Context, logger *zap.Logger, url, path, keyPath string) (*Repository, error) {
	auth, err := authFor(url, keyPath)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
		Auth:       auth,
	})
	if err != nil {
		return nil, domain.PathE(domain.KindNetwork, "collection.clone", url, err)
	}
	return &Repository{logger: logger, repo: repo, path: path, keyPath: keyPath}, nil
}

// Remote returns the origin URL, "" when none is configured.
func (r *Repository) Remote() string {
	remote, err := r.repo.Remote(remoteName)
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return remote.Config().URLs[0]
}

// CommitAll stages every file in the worktree and commits it, even when nothing changed.
func (r *Repository) CommitAll(message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return gitError("collection.commit", r.path, err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return gitError("collection.commit", r.path, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		All:               true,
		AllowEmptyCommits: true,
		Author:            r.signature(),
	})
	if err != nil {
		return gitError("collection.commit", r.path, err)
	}

	r.logger.Debug("Committed collection", zap.String("path", r.path), zap.String("hash", hash.String()))
	return nil
}

// Sync fetches from origin and pushes local branches to it.
func (r *Repository) Sync(ctx context.Context) error {
	url := r.Remote()
	if url == "" {
		return gitError("collection.sync", r.path, fmt.Errorf("no %s remote configured", remoteName))
	}
	auth, err := authFor(url, r.keyPath)
	if err != nil {
		return err
	}

	err = r.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remoteName, Auth: auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) && !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return domain.PathE(domain.KindNetwork, "collection.fetch", url, err)
	}

	err = r.repo.PushContext(ctx, &git.PushOptions{RemoteName: remoteName, Auth: auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return domain.PathE(domain.KindNetwork, "collection.push", url, err)
	}

	r.logger.Info("Collection synced", zap.String("path", r.path), zap.String("remote", url))
	return nil
}

// signature uses the user from the git configuration, falling back to a fixed identity.
func (r *Repository) signature() *object.Signature {
	sig := &object.Signature{Name: "walltz", Email: "walltz@localhost", When: time.Now()}
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

// authFor loads the SSH key for ssh remotes. Other remotes use the transport defaults.
func authFor(url, keyPath string) (transport.AuthMethod, error) {
	if keyPath == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return nil, nil
	}
	auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		return nil, domain.PathE(domain.KindConfig, "collection.auth", keyPath, fmt.Errorf("failed to load private key: %w", err))
	}
	return auth, nil
}

func gitError(op, path string, err error) error {
	return domain.PathE(domain.KindFs, op, path, fmt.Errorf("git: %w", err))
}

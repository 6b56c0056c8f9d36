package jhu

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/epifetch/internal/domain/model"
	"github.com/okian/epifetch/pkg/logger"
	"github.com/okian/epifetch/pkg/metrics"
)

// Default dataset repository and its fixed internal layout.
const (
	defaultRepoURL = "https://github.com/CSSEGISandData/COVID-19"

	repoSubdir     = "jhu_repo"
	timeSeriesPath = "csse_covid_19_data/csse_covid_19_time_series"

	commitIDLength = 40
)

// naiveLayout matches timestamps that parse except for the missing offset.
// time.Parse also accepts a fractional-second tail against this layout.
const naiveLayout = "2006-01-02T15:04:05"

// Snapshot is the materialized historical state of the dataset directory:
// the resolved commit and the paths to the three canonical CSVs inside the
// checked-out tree.
type Snapshot struct {
	Commit     string
	CommitTime time.Time
	Confirmed  string
	Deaths     string
	Recovered  string
}

// gitClient is the version-control collaborator. The production
// implementation runs on go-git; tests inject fakes.
type gitClient interface {
	// Clone clones the full history of url into dir.
	Clone(ctx context.Context, url, dir string) error
	// CommitBefore returns the newest commit on the primary branch whose
	// commit time is at or before the given instant, with its commit time.
	// An empty id means no commit qualifies.
	CommitBefore(ctx context.Context, dir string, at time.Time) (string, time.Time, error)
	// Checkout mutates the working tree in dir to the given commit.
	Checkout(ctx context.Context, dir, commit string) error
}

// SnapshotResolver reconstructs the dataset as it existed at a point in the
// past by cloning the repository's full history and checking out the last
// commit before that point.
//
// Cloning and checkout are destructive; a resolver call expects a fresh
// working directory.
type SnapshotResolver struct {
	repoURL string
	git     gitClient
	log     logger.Logger
}

// ResolverOption applies a configuration option to the SnapshotResolver.
type ResolverOption func(*SnapshotResolver)

// WithRepoURL sets the dataset repository to clone.
func WithRepoURL(url string) ResolverOption {
	return func(r *SnapshotResolver) {
		if url != "" {
			r.repoURL = url
		}
	}
}

// WithGitClient sets the version-control collaborator.
func WithGitClient(client gitClient) ResolverOption {
	return func(r *SnapshotResolver) {
		if client != nil {
			r.git = client
		}
	}
}

// WithResolverLogger sets a custom logger for the resolver.
func WithResolverLogger(log logger.Logger) ResolverOption {
	return func(r *SnapshotResolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewSnapshotResolver creates a resolver with configuration options.
func NewSnapshotResolver(opts ...ResolverOption) *SnapshotResolver {
	r := &SnapshotResolver{
		repoURL: defaultRepoURL,
		git:     &goGitClient{},
		log:     logger.Get().Named("snapshot"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAt materializes the dataset state at the given timestamp inside
// workdir and returns the paths to the three canonical CSVs.
//
// The timestamp must carry a UTC offset (RFC 3339); a wall-clock reading
// without one is ambiguous as a point in the past and is rejected before
// any network I/O.
func (r *SnapshotResolver) ResolveAt(ctx context.Context, timestamp, workdir string) (*Snapshot, error) {
	at, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		if _, naiveErr := time.Parse(naiveLayout, timestamp); naiveErr == nil {
			return nil, fmt.Errorf("%w: %q", ErrNaiveTime, timestamp)
		}
		return nil, fmt.Errorf("%w: %q", ErrBadTimestamp, timestamp)
	}

	start := time.Now()
	repodir := filepath.Join(workdir, repoSubdir)

	r.log.Info(ctx, "cloning dataset repository",
		logger.String("repo", r.repoURL),
		logger.String("dir", repodir),
	)
	if err := r.git.Clone(ctx, r.repoURL, repodir); err != nil {
		return nil, fmt.Errorf("clone %s: %w", r.repoURL, err)
	}

	r.log.Info(ctx, "finding the last commit before the requested time",
		logger.Time("at", at),
	)
	commit, commitTime, err := r.git.CommitBefore(ctx, repodir, at)
	if err != nil {
		return nil, fmt.Errorf("commit lookup: %w", err)
	}
	if !validCommitID(commit) {
		return nil, fmt.Errorf("%w: %s", ErrNoCommit, timestamp)
	}

	r.log.Info(ctx, "checking out commit", logger.String("commit", commit))
	if err := r.git.Checkout(ctx, repodir, commit); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", commit, err)
	}

	metrics.RecordSnapshotResolveDuration(time.Since(start))
	metrics.UpdateSnapshotCommitTime(commitTime)

	dir := filepath.Join(repodir, filepath.FromSlash(timeSeriesPath))
	return &Snapshot{
		Commit:     commit,
		CommitTime: commitTime,
		Confirmed:  filepath.Join(dir, model.DatasetConfirmed.Filename()),
		Deaths:     filepath.Join(dir, model.DatasetDeaths.Filename()),
		Recovered:  filepath.Join(dir, model.DatasetRecovered.Filename()),
	}, nil
}

// validCommitID reports whether id has the fixed-length hex hash format.
func validCommitID(id string) bool {
	if len(id) != commitIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

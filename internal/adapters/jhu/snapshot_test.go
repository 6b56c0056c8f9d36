package jhu

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeGit records every call and plays back configured responses.
type fakeGit struct {
	cloneErr   error
	commitID   string
	commitTime time.Time
	lookupErr  error

	cloned     []string
	lookedUp   []time.Time
	checkedOut []string
}

func (f *fakeGit) Clone(_ context.Context, _, dir string) error {
	f.cloned = append(f.cloned, dir)
	return f.cloneErr
}

func (f *fakeGit) CommitBefore(_ context.Context, _ string, at time.Time) (string, time.Time, error) {
	f.lookedUp = append(f.lookedUp, at)
	return f.commitID, f.commitTime, f.lookupErr
}

func (f *fakeGit) Checkout(_ context.Context, _, commit string) error {
	f.checkedOut = append(f.checkedOut, commit)
	return nil
}

const commitID = "da2a5df6d4b3ce5f0f8f5b63d1b66d8a92158b01"

func TestResolveAt(t *testing.T) {
	Convey("Given a snapshot resolver over a fake git client", t, func() {
		fake := &fakeGit{
			commitID:   commitID,
			commitTime: time.Date(2020, 4, 1, 10, 0, 0, 0, time.UTC),
		}
		r := NewSnapshotResolver(WithGitClient(fake))

		Convey("When resolving at a timezone-aware timestamp", func() {
			snap, err := r.ResolveAt(context.Background(), "2020-04-01T12:00:00Z", t.TempDir())

			Convey("Then the snapshot names the resolved commit and CSV paths", func() {
				So(err, ShouldBeNil)
				So(snap.Commit, ShouldEqual, commitID)
				So(snap.Confirmed, ShouldEndWith,
					filepath.Join("csse_covid_19_time_series", "time_series_covid19_confirmed_global.csv"))
				So(snap.Deaths, ShouldContainSubstring, "jhu_repo")
				So(snap.Recovered, ShouldContainSubstring, "recovered")
			})

			Convey("And the working tree was checked out at that commit", func() {
				So(fake.checkedOut, ShouldResemble, []string{commitID})
			})
		})

		Convey("When resolving at a timestamp without a UTC offset", func() {
			_, err := r.ResolveAt(context.Background(), "2020-04-01T12:00:00", t.TempDir())

			Convey("Then the call fails before any git I/O", func() {
				So(err, ShouldWrap, ErrNaiveTime)
				So(fake.cloned, ShouldBeEmpty)
				So(fake.lookedUp, ShouldBeEmpty)
			})
		})

		Convey("When the offset-less timestamp carries fractional seconds", func() {
			_, err := r.ResolveAt(context.Background(), "2020-04-01T12:00:00.5", t.TempDir())

			Convey("Then it is still classified as missing the offset", func() {
				So(err, ShouldWrap, ErrNaiveTime)
				So(fake.cloned, ShouldBeEmpty)
			})
		})

		Convey("When resolving at an unparseable timestamp", func() {
			_, err := r.ResolveAt(context.Background(), "yesterday", t.TempDir())

			So(err, ShouldWrap, ErrBadTimestamp)
			So(fake.cloned, ShouldBeEmpty)
		})
	})

	Convey("Given a repository with no commit before the requested time", t, func() {
		fake := &fakeGit{commitID: ""}
		r := NewSnapshotResolver(WithGitClient(fake))

		Convey("When resolving", func() {
			_, err := r.ResolveAt(context.Background(), "2010-01-01T00:00:00Z", t.TempDir())

			Convey("Then resolution fails and nothing is checked out", func() {
				So(err, ShouldWrap, ErrNoCommit)
				So(fake.checkedOut, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a git client that returns a malformed commit id", t, func() {
		fake := &fakeGit{commitID: "abc123"}
		r := NewSnapshotResolver(WithGitClient(fake))

		Convey("When resolving", func() {
			_, err := r.ResolveAt(context.Background(), "2020-04-01T12:00:00Z", t.TempDir())

			So(err, ShouldWrap, ErrNoCommit)
		})
	})

	Convey("Given a clone failure", t, func() {
		fake := &fakeGit{cloneErr: errors.New("network down")}
		r := NewSnapshotResolver(WithGitClient(fake))

		Convey("When resolving", func() {
			_, err := r.ResolveAt(context.Background(), "2020-04-01T12:00:00Z", t.TempDir())

			Convey("Then the failure propagates", func() {
				So(err, ShouldNotBeNil)
				So(fake.lookedUp, ShouldBeEmpty)
			})
		})
	})
}

func TestValidCommitID(t *testing.T) {
	Convey("Given candidate commit ids", t, func() {
		Convey("Then only 40-char hex strings are valid", func() {
			So(validCommitID(commitID), ShouldBeTrue)
			So(validCommitID(""), ShouldBeFalse)
			So(validCommitID("abc123"), ShouldBeFalse)
			So(validCommitID(commitID[:39]+"g"), ShouldBeFalse)
		})
	})
}

package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/okian/trendscope/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// exerciseStore runs the behaviour every TokenStore must share.
func exerciseStore(store repository.TokenStore) {
	ctx := context.Background()

	Convey("When nothing is stored", func() {
		_, err := store.Load(ctx)

		Convey("Then ErrNotFound should be returned", func() {
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When a token is saved", func() {
		err := store.Save(ctx, repository.Token{AccessToken: "access", RefreshToken: "refresh", Username: "ada"})
		So(err, ShouldBeNil)

		got, err := store.Load(ctx)

		Convey("Then it should load back with a save time", func() {
			So(err, ShouldBeNil)
			So(got.AccessToken, ShouldEqual, "access")
			So(got.RefreshToken, ShouldEqual, "refresh")
			So(got.Username, ShouldEqual, "ada")
			So(got.SavedAt.Equal(fixedNow), ShouldBeTrue)
		})

		Convey("And the store is cleared", func() {
			So(store.Clear(ctx), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then the token is gone", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And clearing again is harmless", func() {
				So(store.Clear(ctx), ShouldBeNil)
			})
		})
	})

	Convey("When an empty token is saved", func() {
		err := store.Save(ctx, repository.Token{Username: "ada"})

		Convey("Then it should be rejected", func() {
			So(errors.Is(err, repository.ErrInvalidToken), ShouldBeTrue)
		})
	})

	Convey("When only a refresh token is saved", func() {
		So(store.Save(ctx, repository.Token{RefreshToken: "r", Username: "ada"}), ShouldBeNil)
		got, err := store.Load(ctx)

		Convey("Then it should be kept", func() {
			So(err, ShouldBeNil)
			So(got.AccessToken, ShouldBeEmpty)
			So(got.RefreshToken, ShouldEqual, "r")
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		exerciseStore(repository.NewMemoryStore(repository.WithClock(clock)))
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a fresh directory", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "credentials.json")
		store := repository.NewFileStore(path, repository.WithClock(clock))

		exerciseStore(store)

		Convey("When a token is saved to disk", func() {
			So(store.Save(context.Background(), repository.Token{AccessToken: "a"}), ShouldBeNil)

			Convey("Then only the owner can read it", func() {
				if runtime.GOOS == "windows" {
					return
				}
				fi, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(fi.Mode().Perm(), ShouldEqual, os.FileMode(0o600))

				di, err := os.Stat(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(di.Mode().Perm(), ShouldEqual, os.FileMode(0o700))
			})

			Convey("Then a second store instance sees it", func() {
				got, err := repository.NewFileStore(path).Load(context.Background())
				So(err, ShouldBeNil)
				So(got.AccessToken, ShouldEqual, "a")
			})
		})

		Convey("When the file holds garbage", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o700), ShouldBeNil)
			So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)

			_, err := store.Load(context.Background())

			Convey("Then ErrInvalidToken should be returned", func() {
				So(errors.Is(err, repository.ErrInvalidToken), ShouldBeTrue)
			})
		})
	})
}

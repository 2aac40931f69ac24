package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/trendscope/internal/adapters/cache"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given two requests differing only in keyword order and case", t, func() {
		a := cache.Key([]string{"Go", "rust"}, types.Timeframe12Months, "US")
		b := cache.Key([]string{"rust ", "go"}, types.Timeframe12Months, "US")

		Convey("Then the keys should match", func() {
			So(a, ShouldEqual, b)
		})

		Convey("Then a different geo should change the key", func() {
			So(cache.Key([]string{"go", "rust"}, types.Timeframe12Months, "DE"), ShouldNotEqual, a)
		})
	})
}

func TestSearchCache(t *testing.T) {
	req := model.SearchRequest{Keywords: []string{"go"}, Timeframe: types.Timeframe3Months, Geo: "US"}
	resp := model.SearchResponse{"go": {Values: []float64{1, 2, 3}}}

	Convey("Given an empty cache", t, func() {
		c := cache.New(2, time.Hour)

		Convey("When looking up a request", func() {
			_, ok := c.Get(req)

			Convey("Then it should miss", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a response is added", func() {
			c.Add(req, resp)
			got, ok := c.Get(req)

			Convey("Then it should hit", func() {
				So(ok, ShouldBeTrue)
				So(got["go"].Values, ShouldResemble, []float64{1, 2, 3})
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("And the cache is purged", func() {
				c.Purge()

				Convey("Then it should be empty", func() {
					So(c.Len(), ShouldEqual, 0)
				})
			})
		})

		Convey("When more entries than the size are added", func() {
			for _, k := range []string{"a", "b", "c"} {
				c.Add(model.SearchRequest{Keywords: []string{k}}, resp)
			}

			Convey("Then the oldest is evicted", func() {
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Get(model.SearchRequest{Keywords: []string{"a"}})
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a cache with a short ttl", t, func() {
		c := cache.New(4, 20*time.Millisecond)
		c.Add(req, resp)
		time.Sleep(60 * time.Millisecond)

		Convey("Then entries expire", func() {
			_, ok := c.Get(req)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given non-positive bounds", t, func() {
		c := cache.New(0, 0)
		c.Add(req, resp)
		So(c.Len(), ShouldEqual, 1)
	})
}

func TestSearchCacheFile(t *testing.T) {
	req := model.SearchRequest{Keywords: []string{"go"}, Timeframe: types.Timeframe3Months, Geo: "US"}
	other := model.SearchRequest{Keywords: []string{"rust"}, Timeframe: types.Timeframe3Months, Geo: "US"}
	resp := model.SearchResponse{"go": {Values: []float64{1, 2, 3}}}

	Convey("Given a cache saved to a file", t, func() {
		path := filepath.Join(t.TempDir(), "state", "search-cache.json")
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		c := cache.New(4, time.Hour, cache.WithClock(clock))
		c.Add(req, resp)
		So(c.SaveFile(path), ShouldBeNil)

		info, err := os.Stat(path)
		So(err, ShouldBeNil)
		So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))

		Convey("When a fresh cache loads it within the ttl", func() {
			now = now.Add(30 * time.Minute)
			fresh := cache.New(4, time.Hour, cache.WithClock(clock))
			n, err := fresh.LoadFile(path)

			Convey("Then the response is served from it", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				got, ok := fresh.Get(req)
				So(ok, ShouldBeTrue)
				So(got["go"].Values, ShouldResemble, []float64{1, 2, 3})
			})

			Convey("Then the entry still expires an hour after it was fetched", func() {
				now = now.Add(31 * time.Minute)
				_, ok := fresh.Get(req)
				So(ok, ShouldBeFalse)
				So(fresh.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the saved entries are older than the ttl", func() {
			now = now.Add(2 * time.Hour)
			fresh := cache.New(4, time.Hour, cache.WithClock(clock))
			n, err := fresh.LoadFile(path)

			Convey("Then nothing is loaded", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				_, ok := fresh.Get(req)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the cache is saved again with another entry", func() {
			c.Add(other, resp)
			So(c.SaveFile(path), ShouldBeNil)
			fresh := cache.New(4, time.Hour, cache.WithClock(clock))
			n, err := fresh.LoadFile(path)

			Convey("Then both entries come back", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When an empty cache is saved over it", func() {
			So(cache.New(4, time.Hour).SaveFile(path), ShouldBeNil)

			Convey("Then the file is removed", func() {
				_, err := os.Stat(path)
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})

	Convey("Given no saved cache", t, func() {
		n, err := cache.New(4, time.Hour).LoadFile(filepath.Join(t.TempDir(), "missing.json"))
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)
	})

	Convey("Given a corrupt cache file", t, func() {
		path := filepath.Join(t.TempDir(), "search-cache.json")
		So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)

		_, err := cache.New(4, time.Hour).LoadFile(path)
		So(errors.Is(err, cache.ErrCacheFile), ShouldBeTrue)
	})
}

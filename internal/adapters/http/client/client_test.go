package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/trendscope/internal/adapters/http/client"
	"github.com/okian/trendscope/internal/adapters/repository"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// recorded is the last request the fake API saw.
type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	ReqID  string
	Body   map[string]any
}

type fakeAPI struct {
	mu     sync.Mutex
	last   recorded
	status int
	body   string
	server *httptest.Server
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec := recorded{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			ReqID:  r.Header.Get("X-Request-ID"),
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		f.mu.Lock()
		f.last = rec
		status, body := f.status, f.body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	return f
}

func (f *fakeAPI) respond(status int, body string) {
	f.mu.Lock()
	f.status, f.body = status, body
	f.mu.Unlock()
}

func (f *fakeAPI) request() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func newClient(f *fakeAPI, store repository.TokenStore) *client.Client {
	c, err := client.New(f.server.URL+"/api/v1/",
		client.WithTokenStore(store),
		client.WithLogger(logger.New(logger.WithWriter(io.Discard))),
	)
	So(err, ShouldBeNil)
	return c
}

func TestNew(t *testing.T) {
	Convey("Given base URLs", t, func() {
		_, err := client.New("localhost:5000")
		So(errors.Is(err, client.ErrInvalidBaseURL), ShouldBeTrue)

		_, err = client.New("ftp://example.com/api/v1")
		So(errors.Is(err, client.ErrInvalidBaseURL), ShouldBeTrue)

		c, err := client.New("https://example.com/api/v1/", client.WithTimeout(time.Second), client.WithRateLimit(5, 5))
		So(err, ShouldBeNil)
		So(c.BaseURL(), ShouldEqual, "https://example.com/api/v1")
	})
}

func TestSearch(t *testing.T) {
	Convey("Given an API that returns two series", t, func() {
		api := newFakeAPI()
		defer api.server.Close()
		api.respond(http.StatusOK, `{"success":true,"data":{
			"go":{"values":[10,20,30],"analytics":{"avg_interest":20,"trend_direction":"rising"}},
			"rust":{"search_volume":[5,5,5]}},"metadata":{"geo":"US"}}`)

		store := repository.NewMemoryStore()
		So(store.Save(context.Background(), repository.Token{AccessToken: "tok-1"}), ShouldBeNil)
		c := newClient(api, store)

		Convey("When searching", func() {
			res, err := c.Search(context.Background(), model.SearchRequest{
				Keywords: []string{"go", "rust"}, Timeframe: types.Timeframe12Months, Geo: "US",
			})

			Convey("Then the typed series should be returned", func() {
				So(err, ShouldBeNil)
				So(res["go"].Values, ShouldResemble, []float64{10, 20, 30})
				So(res["go"].Analytics.TrendDirection, ShouldEqual, types.DirectionRising)
				So(res["rust"].Observations(), ShouldResemble, []float64{5, 5, 5})
			})

			Convey("Then the request should carry auth, id and body", func() {
				req := api.request()
				So(req.Method, ShouldEqual, http.MethodPost)
				So(req.Path, ShouldEqual, "/api/v1/trends/search")
				So(req.Auth, ShouldEqual, "Bearer tok-1")
				So(req.ReqID, ShouldNotBeEmpty)
				So(req.Body["timeframe"], ShouldEqual, "today 12-m")
				So(req.Body["geo"], ShouldEqual, "US")
			})
		})

		Convey("When the token is cleared between requests", func() {
			So(store.Clear(context.Background()), ShouldBeNil)
			_, err := c.Search(context.Background(), model.SearchRequest{Keywords: []string{"go"}})

			Convey("Then no Authorization header is sent", func() {
				So(err, ShouldBeNil)
				So(api.request().Auth, ShouldBeEmpty)
			})
		})
	})
}

func TestFailures(t *testing.T) {
	Convey("Given a fake API", t, func() {
		api := newFakeAPI()
		defer api.server.Close()
		c := newClient(api, nil)
		ctx := context.Background()

		Convey("When the server reports a business failure with 4xx", func() {
			api.respond(http.StatusBadRequest, `{"error":"Maximum 5 keywords allowed"}`)
			_, err := c.Search(ctx, model.SearchRequest{Keywords: []string{"a"}})

			Convey("Then an APIError should carry the message", func() {
				var apiErr *client.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusBadRequest)
				So(client.DisplayMessage(err), ShouldEqual, "Maximum 5 keywords allowed")
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeFalse)
			})
		})

		Convey("When the server reports success false with 200", func() {
			api.respond(http.StatusOK, `{"success":false,"error":"Premium account required","details":"upgrade"}`)
			_, err := c.TrainModels(ctx)

			Convey("Then it is still a business failure", func() {
				var apiErr *client.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(client.DisplayMessage(err), ShouldEqual, "Premium account required: upgrade")
			})
		})

		Convey("When the server fails without an envelope", func() {
			api.respond(http.StatusBadGateway, `<html>bad gateway</html>`)
			_, err := c.ModelStatus(ctx)

			Convey("Then it is a request failure with the status", func() {
				var reqErr *client.RequestError
				So(errors.As(err, &reqErr), ShouldBeTrue)
				So(reqErr.Status, ShouldEqual, http.StatusBadGateway)
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeTrue)
				So(client.DisplayMessage(err), ShouldEqual, "request failed: 502 Bad Gateway")
			})
		})

		Convey("When the server returns 401", func() {
			api.respond(http.StatusUnauthorized, `{"error":"Token expired"}`)
			_, err := c.Dashboard(ctx)

			Convey("Then ErrUnauthorized should match", func() {
				So(errors.Is(err, client.ErrUnauthorized), ShouldBeTrue)
			})
		})

		Convey("When a 2xx body is not JSON", func() {
			api.respond(http.StatusOK, `not json`)
			_, err := c.ModelStatus(ctx)

			Convey("Then it is a request failure", func() {
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeTrue)
			})
		})

		Convey("When success carries no data", func() {
			api.respond(http.StatusOK, `{"success":true}`)
			_, err := c.ModelStatus(ctx)

			Convey("Then the empty envelope is reported", func() {
				So(errors.Is(err, model.ErrEmptyEnvelope), ShouldBeTrue)
			})
		})

		Convey("When the body is larger than the client reads", func() {
			body := `{"success":true,"data":{"models_available":true,"model_count":3}}`
			api.respond(http.StatusOK, body)
			small, err := client.New(api.server.URL+"/api/v1",
				client.WithMaxResponseBytes(int64(len(body)-1)),
				client.WithLogger(logger.New(logger.WithWriter(io.Discard))),
			)
			So(err, ShouldBeNil)
			_, err = small.ModelStatus(ctx)

			Convey("Then it is reported as too large rather than undecodable", func() {
				So(errors.Is(err, client.ErrResponseTooLarge), ShouldBeTrue)
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeTrue)
				So(client.DisplayMessage(err), ShouldEqual, "request failed: response too large")
			})

			Convey("Then a body exactly at the limit still decodes", func() {
				exact, err := client.New(api.server.URL+"/api/v1",
					client.WithMaxResponseBytes(int64(len(body))),
					client.WithLogger(logger.New(logger.WithWriter(io.Discard))),
				)
				So(err, ShouldBeNil)
				status, err := exact.ModelStatus(ctx)
				So(err, ShouldBeNil)
				So(status.ModelCount, ShouldEqual, 3)
			})
		})

		Convey("When the server is unreachable", func() {
			api.server.Close()
			_, err := c.ModelStatus(ctx)

			Convey("Then the display string names the transport failure", func() {
				So(errors.Is(err, client.ErrRequestFailed), ShouldBeTrue)
				So(client.DisplayMessage(err), ShouldEqual, "request failed: unable to reach the server")
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := c.ModelStatus(cctx)

			Convey("Then the cancellation is reported", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(client.DisplayMessage(err), ShouldEqual, "request cancelled")
			})
		})
	})
}

func TestEndpoints(t *testing.T) {
	Convey("Given a fake API", t, func() {
		api := newFakeAPI()
		defer api.server.Close()
		c := newClient(api, nil)
		ctx := context.Background()

		Convey("When analyzing a watchlist", func() {
			api.respond(http.StatusOK, `{"success":true,"data":{"analysis_id":9,"watchlist":{"id":3,"name":"langs"},
				"results":{"go":{"status":"success","trend_data":[1,2]}}},"metadata":{"keywords_analyzed":1}}`)
			res, err := c.AnalyzeWatchlist(ctx, 3)

			So(err, ShouldBeNil)
			So(res.AnalysisID, ShouldEqual, 9)
			So(res.Results["go"].Status, ShouldEqual, model.KeywordAnalyzed)
			So(api.request().Path, ShouldEqual, "/api/v1/watchlists/3/analyze")
		})

		Convey("When deleting a watchlist with an empty body", func() {
			api.respond(http.StatusNoContent, ``)
			err := c.DeleteWatchlist(ctx, 4)

			So(err, ShouldBeNil)
			So(api.request().Method, ShouldEqual, http.MethodDelete)
		})

		Convey("When updating a watchlist", func() {
			api.respond(http.StatusOK, `{"success":true,"data":{"id":5,"name":"renamed","is_active":false}}`)
			paused := false
			w, err := c.UpdateWatchlist(ctx, 5, model.WatchlistInput{Name: "renamed", IsActive: &paused})

			So(err, ShouldBeNil)
			So(w.Status(), ShouldEqual, "paused")
			So(api.request().Method, ShouldEqual, http.MethodPut)
			So(api.request().Body["is_active"], ShouldEqual, false)
		})

		Convey("When listing analyses with filters", func() {
			api.respond(http.StatusOK, `{"success":true,"data":[{"id":1,"title":"a"}],"metadata":{"count":1,"offset":10,"limit":100}}`)
			page, err := c.ListAnalyses(ctx, model.AnalysisFilter{
				Type:   "watchlist_ml",
				From:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Sort:   model.SortOldest,
				Limit:  500,
				Offset: 10,
			})

			So(err, ShouldBeNil)
			So(len(page.Analyses), ShouldEqual, 1)
			So(page.Limit, ShouldEqual, 100)
			So(page.Offset, ShouldEqual, 10)
			q := api.request().Query
			So(q, ShouldContainSubstring, "type=watchlist_ml")
			So(q, ShouldContainSubstring, "limit=100")
			So(q, ShouldContainSubstring, "sort=oldest")
			So(q, ShouldContainSubstring, "from=2024-01-01T00%3A00%3A00Z")
		})

		Convey("When fetching a public trend for a keyword with spaces", func() {
			api.respond(http.StatusOK, `{"success":true,"data":{"keyword":"machine learning","values":[1,2],"ml_insights":{"trend_direction":"rising"}}}`)
			pt, err := c.PublicTrend(ctx, "machine learning", types.Timeframe3Months, types.Worldwide, true)

			So(err, ShouldBeNil)
			So(pt.MLInsights.TrendDirection, ShouldEqual, types.DirectionRising)
			So(api.request().Path, ShouldEqual, "/api/v1/trends/public/machine%20learning")
			So(api.request().Query, ShouldContainSubstring, "include_ml=true")
			So(api.request().Query, ShouldNotContainSubstring, "geo=")
		})

		Convey("When training models", func() {
			api.respond(http.StatusOK, `{"success":true,"message":"Models trained successfully","metadata":{"training_time_ms":1532.5}}`)
			res, err := c.TrainModels(ctx)

			So(err, ShouldBeNil)
			So(res.Message, ShouldEqual, "Models trained successfully")
			So(res.TrainingTimeMS, ShouldEqual, 1532.5)
		})

		Convey("When logging in", func() {
			api.respond(http.StatusOK, `{"success":true,"data":{"access_token":"a","refresh_token":"r","user":{"id":1,"username":"ada"}}}`)
			res, err := c.Login(ctx, model.Credentials{Username: "ada", Password: "pw"})

			So(err, ShouldBeNil)
			So(res.AccessToken, ShouldEqual, "a")
			So(res.User.Username, ShouldEqual, "ada")
			So(api.request().Path, ShouldEqual, "/api/v1/auth/login")
		})

		Convey("When fetching insights", func() {
			api.respond(http.StatusOK, `{"success":true,"data":[{"type":"spike","keyword":"go","description":"jump","confidence":0.9,"detected_at":"2024-02-01T00:00:00"}]}`)
			ins, err := c.Insights(ctx, model.InsightsRequest{Keywords: []string{"go"}, Timeframe: types.Timeframe3Months})

			So(err, ShouldBeNil)
			So(len(ins), ShouldEqual, 1)
			So(ins[0].Type, ShouldEqual, types.InsightSpike)
			So(ins[0].DetectedAt.Year(), ShouldEqual, 2024)
		})
	})
}

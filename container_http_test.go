package bindkit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bindkit/bindkit"
	"github.com/bindkit/bindkit/mock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/suite"
)

type requestScopeKey struct{}

// RequestInfo is the per-request state bound into each request's scope.
type RequestInfo struct {
	ID string
}

type HTTPTestSuite struct {
	suite.Suite
	root *bindkit.Container
}

func (s *HTTPTestSuite) SetupTest() {
	s.root = bindkit.New(bindkit.Config{})
	s.Require().NoError(bindkit.BindSingleton[mock.Database](s.root, mock.DBRecipe()))
}

func (s *HTTPTestSuite) TearDownTest() {
	s.NoError(s.root.Close())
}

// scopeMiddleware opens a child scope per request, binds the request state
// into it, and closes it when the handler returns.
func (s *HTTPTestSuite) scopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := s.root.Child()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer scope.Close()

		info := &RequestInfo{ID: middleware.GetReqID(r.Context())}
		if err := bindkit.BindInstance[*RequestInfo](scope, info); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), requestScopeKey{}, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPTestSuite) TestRequestScopedResolution() {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.scopeMiddleware)

	dbs := make(chan mock.Database, 2)
	ids := make(chan string, 2)

	router.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		scope := r.Context().Value(requestScopeKey{}).(*bindkit.Container)

		info, err := bindkit.ResolveAs[*RequestInfo](scope)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		db, err := bindkit.ResolveAs[mock.Database](scope)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ids <- info.ID
		dbs <- db
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	}
	close(ids)
	close(dbs)

	first, second := <-ids, <-ids
	s.NotEqual(first, second, "each request should see its own request state")

	dbFirst, dbSecond := <-dbs, <-dbs
	s.Same(dbFirst, dbSecond, "singleton should be shared across request scopes")
}

func (s *HTTPTestSuite) TestRequestScopeDoesNotLeakIntoRoot() {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.scopeMiddleware)
	router.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)

	_, err := bindkit.ResolveAs[*RequestInfo](s.root)
	s.Error(err, "request state must not be visible from the root scope")
}

func TestHTTPSuite(t *testing.T) {
	suite.Run(t, new(HTTPTestSuite))
}

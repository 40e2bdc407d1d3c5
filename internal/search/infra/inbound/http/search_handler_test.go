package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/stacsearch/internal/search/application"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	"github.com/davicafu/stacsearch/tests/mocks"
)

var testLimits = Limits{Default: 20, Max: 100}

func setupRouter(repo *mocks.MockFeatureRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := application.NewSearchService(
		searchDomain.DefaultModels(),
		repo,
		mocks.NewDummyCache(),
		nil,
		application.Settings{Schema: "resto", UseDistance: true, CacheTTL: time.Minute},
		zap.NewNop(),
	)
	r := gin.New()
	RegisterSearchRoutes(r, NewSearchHandler(service, testLimits, zap.NewNop()))
	return r
}

func doRequest(r *gin.Engine, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Filter  string `json:"filter"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func clauseOf(t *testing.T, r *gin.Engine, target string, headers map[string]string) string {
	t.Helper()
	w := doRequest(r, http.MethodGet, target, "", headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data struct {
			Clause string `json:"clause"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data.Clause
}

func TestSearch_ReturnsFeatureCollection(t *testing.T) {
	// Arrange
	repo := &mocks.MockFeatureRepository{}
	id := uuid.New()
	repo.On("Search", mock.Anything, mock.MatchedBy(func(q searchDomain.FeatureQuery) bool {
		return strings.Contains(q.Clause.Where, "resto.feature.likes >= 10") && q.Limit == 1
	})).Return([]*searchDomain.Feature{{ID: id, Collection: "S2", GeometryWKT: "POINT(1 2)"}}, 5, nil)
	r := setupRouter(repo)

	// Act
	w := doRequest(r, http.MethodGet, "/search?likes=[10,20]&limit=1", "", nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var fc featureCollectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, 5, fc.NumberMatched)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, id.String(), fc.Features[0].ID)
	require.NotNil(t, fc.Features[0].Geometry)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)

	var next string
	for _, l := range fc.Links {
		if l.Rel == "next" {
			next = l.Href
		}
	}
	assert.Contains(t, next, "startIndex=2")
	repo.AssertExpectations(t)
}

func TestSearch_IntersectsAndBBoxRejected(t *testing.T) {
	repo := &mocks.MockFeatureRepository{}
	r := setupRouter(repo)

	w := doRequest(r, http.MethodGet, "/search?bbox=0,0,1,1&intersects=POINT(0%200)", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, w).Error.Code)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearch_OwnerShorthandNeedsAuthentication(t *testing.T) {
	// Arrange
	r := setupRouter(&mocks.MockFeatureRepository{})

	// Act
	anonymous := doRequest(r, http.MethodGet, "/search?owner=f", "", nil)
	clause := clauseOf(t, r, "/search/clause?owner=f", map[string]string{HeaderUser: "42", HeaderGroups: "100,200"})

	// Assert
	assert.Equal(t, http.StatusForbidden, anonymous.Code)
	body := decodeError(t, anonymous)
	assert.Equal(t, "PERMISSION_DENIED", body.Error.Code)
	assert.Equal(t, searchDomain.FilterOwner, body.Error.Filter)

	assert.Contains(t, clause, "resto.feature.visibility IN (100,200)")
	assert.Contains(t, clause, "resto.feature.userid IN (SELECT userid FROM resto.follower WHERE followerid = 42)")
}

func TestCollectionItems_FiltersByCollection(t *testing.T) {
	repo := &mocks.MockFeatureRepository{}
	repo.On("Search", mock.Anything, mock.MatchedBy(func(q searchDomain.FeatureQuery) bool {
		return strings.Contains(q.Clause.Where, "resto.feature.collection = 'S2'")
	})).Return([]*searchDomain.Feature{}, 0, nil)
	r := setupRouter(repo)

	w := doRequest(r, http.MethodGet, "/collections/S2/items", "", nil)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	repo.AssertExpectations(t)
}

func TestSearchPost_UsesBody(t *testing.T) {
	// Arrange
	repo := &mocks.MockFeatureRepository{}
	repo.On("Search", mock.Anything, mock.MatchedBy(func(q searchDomain.FeatureQuery) bool {
		return strings.Contains(q.Clause.Where, "ST_intersects") && q.Limit == 3
	})).Return([]*searchDomain.Feature{}, 0, nil)
	r := setupRouter(repo)

	// Act
	w := doRequest(r, http.MethodPost, "/search", `{"bbox":[0,0,1,1],"limit":3,"collections":["S2","L8"]}`, nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	repo.AssertExpectations(t)
}

func TestSearchPost_InvalidBody(t *testing.T) {
	r := setupRouter(&mocks.MockFeatureRepository{})

	w := doRequest(r, http.MethodPost, "/search", `{"bbox":"nope"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_InvalidCallerHeader(t *testing.T) {
	r := setupRouter(&mocks.MockFeatureRepository{})

	w := doRequest(r, http.MethodGet, "/search", "", map[string]string{HeaderUser: "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, HeaderUser, decodeError(t, w).Error.Filter)
}

func TestSearch_ExecutorErrorHidesCause(t *testing.T) {
	repo := &mocks.MockFeatureRepository{}
	repo.On("Search", mock.Anything, mock.Anything).Return(nil, 0, errors.New("password authentication failed"))
	r := setupRouter(repo)

	w := doRequest(r, http.MethodGet, "/search", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "INTERNAL", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "password")
}

func TestSearch_UnknownModel(t *testing.T) {
	r := setupRouter(&mocks.MockFeatureRepository{})

	w := doRequest(r, http.MethodGet, "/search?model=Nope", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "model", decodeError(t, w).Error.Filter)
}

func TestParseSearchQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		check  func(t *testing.T, req application.SearchRequest)
		errMsg string
	}{
		{
			name:  "datetime interval",
			query: "datetime=2020-01-01T00:00:00Z/2020-02-01T00:00:00Z",
			check: func(t *testing.T, req application.SearchRequest) {
				assert.Equal(t, "2020-01-01T00:00:00Z", req.Params[searchDomain.FilterStart])
				assert.Equal(t, "2020-02-01T00:00:00Z", req.Params[searchDomain.FilterEnd])
			},
		},
		{
			name:  "open datetime",
			query: "datetime=../2020-02-01T00:00:00Z",
			check: func(t *testing.T, req application.SearchRequest) {
				_, hasStart := req.Params[searchDomain.FilterStart]
				assert.False(t, hasStart)
				assert.Equal(t, "2020-02-01T00:00:00Z", req.Params[searchDomain.FilterEnd])
			},
		},
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, req application.SearchRequest) {
				assert.Equal(t, "startdate_idx", req.Sort.Field)
				assert.True(t, req.Sort.Desc)
				assert.Equal(t, 20, req.Page.Limit)
				assert.Equal(t, 0, req.Page.Offset)
				assert.False(t, req.NoGeo)
			},
		},
		{
			name:  "ascending sort, clamped limit and page",
			query: "sort=-created&limit=1000&page=3",
			check: func(t *testing.T, req application.SearchRequest) {
				assert.Equal(t, "created_idx", req.Sort.Field)
				assert.False(t, req.Sort.Desc)
				assert.Equal(t, 100, req.Page.Limit)
				assert.Equal(t, 200, req.Page.Offset)
			},
		},
		{
			name:  "startIndex and heatmap",
			query: "startIndex=11&limit=10&_heatmapNoGeo=true&cloudCover=[0,20]&forestCover=]50",
			check: func(t *testing.T, req application.SearchRequest) {
				assert.Equal(t, 10, req.Page.Offset)
				assert.True(t, req.NoGeo)
				assert.Equal(t, "[0,20]", req.Params["eo:cloudCover"])
				assert.Equal(t, "]50", req.Params["landcover:forestCover"])
			},
		},
		{name: "unknown sort", query: "sort=title", errMsg: "sort"},
		{name: "bad limit", query: "limit=0", errMsg: "limit"},
		{name: "bad startIndex", query: "startIndex=x", errMsg: "startIndex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			req, err := parseSearchQuery(values, testLimits)

			if tt.errMsg != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, searchDomain.ErrInvalidParameter)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			tt.check(t, req)
		})
	}
}

func TestParseCaller(t *testing.T) {
	anon, err := parseCaller("", "")
	require.NoError(t, err)
	assert.False(t, anon.Authenticated)

	c, err := parseCaller("7", "")
	require.NoError(t, err)
	assert.True(t, c.Authenticated)
	assert.Equal(t, []int64{searchDomain.GroupDefault}, c.Groups)

	_, err = parseCaller("7", "1,x")
	assert.Error(t, err)
}

package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clanhub/internal/clan/handler/mocks"
	"clanhub/internal/clan/models"
	"clanhub/internal/clan/service"
	"clanhub/internal/clan/store"
	id "clanhub/pkg/domain"
	dErrors "clanhub/pkg/domain-errors"
	"clanhub/pkg/platform/sentinel"
	"clanhub/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, discardLogger()).Register(r)
	return r
}

// newClanRouter wires the handler to a real service over the in-memory store.
func newClanRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(service.New(store.NewInMemory()))
}

func createClan(t *testing.T, router http.Handler, body any) string {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/clans", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[CreateClanResponse](t, rr)
	assert.Equal(t, "Clan created successfully.", resp.Message)
	return resp.ID
}

func TestAlphaLifecycleOverHTTP(t *testing.T) {
	router := newClanRouter(t)
	before := time.Now().UTC()

	clanID := createClan(t, router, map[string]string{"name": "Alpha", "region": "EU"})
	_, err := id.ParseClanID(clanID)
	require.NoError(t, err)

	testutil.Given(t, "a created clan", func(t *testing.T) {
		testutil.When(t, "fetched by id", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans/"+clanID))
			testutil.AssertStatusOK(t, rr)

			got := testutil.UnmarshalResponse[ClanResponse](t, rr)
			testutil.Then(t, "the full record is returned", func(t *testing.T) {
				assert.Equal(t, clanID, got.ID)
				assert.Equal(t, "Alpha", got.Name)
				require.NotNil(t, got.Region)
				assert.Equal(t, "EU", *got.Region)
				assert.False(t, got.CreatedAt.Before(before.Truncate(time.Second)))
			})
		})

		testutil.When(t, "deleted", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/clans/"+clanID))
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "message", "Clan deleted successfully.")

			testutil.Then(t, "get and delete report not found", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans/"+clanID))
				testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Clan not found.")

				rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/clans/"+clanID))
				testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Clan not found.")
			})
		})
	})
}

func TestBetaRegionSerializesAsNull(t *testing.T) {
	router := newClanRouter(t)
	clanID := createClan(t, router, map[string]string{"name": "Beta"})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans/"+clanID))
	testutil.AssertStatusOK(t, rr)

	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	region, present := (*body)["region"]
	assert.True(t, present, "region key must be present")
	assert.Nil(t, region)
}

func TestPaddedInputRoundTripsUnchanged(t *testing.T) {
	router := newClanRouter(t)
	clanID := createClan(t, router, map[string]string{"name": "  Alpha  ", "region": " EU "})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans/"+clanID))
	testutil.AssertStatusOK(t, rr)

	got := testutil.UnmarshalResponse[ClanResponse](t, rr)
	assert.Equal(t, "  Alpha  ", got.Name)
	require.NotNil(t, got.Region)
	assert.Equal(t, " EU ", *got.Region)
}

func TestMultiByteNameWithinLimit(t *testing.T) {
	router := newClanRouter(t)
	name := strings.Repeat("族", 100)
	clanID := createClan(t, router, map[string]string{"name": name})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans/"+clanID))
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, name, testutil.UnmarshalResponse[ClanResponse](t, rr).Name)
}

func TestCreateValidation(t *testing.T) {
	router := newClanRouter(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"malformed json", `{"name":`, "Invalid request body."},
		{"wrong type", `{"name": 42}`, "Invalid request body."},
		{"missing name", `{"region":"EU"}`, "Field 'name' is required."},
		{"blank name", `{"name":"   "}`, "Field 'name' is required."},
		{"multi-byte name over the limit", `{"name":"` + strings.Repeat("族", 256) + `"}`, "Field 'name' must be at most 255 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/clans", tt.body))
			testutil.AssertStatusAndDetail(t, rr, http.StatusBadRequest, tt.detail)
		})
	}
}

func TestListOverHTTP(t *testing.T) {
	router := newClanRouter(t)
	first := createClan(t, router, map[string]string{"name": "one", "region": "EU"})
	second := createClan(t, router, map[string]string{"name": "two", "region": "US"})
	third := createClan(t, router, map[string]string{"name": "three", "region": "EU"})

	list := func(t *testing.T, path string) []string {
		t.Helper()
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, path))
		testutil.AssertStatusOK(t, rr)
		clans := testutil.UnmarshalResponse[[]ClanResponse](t, rr)
		out := make([]string, 0, len(*clans))
		for _, c := range *clans {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{first, second, third}, list(t, "/clans"))
	assert.Equal(t, []string{first, second, third}, list(t, "/clans?sort_by=created_at"))
	assert.Equal(t, []string{first, third}, list(t, "/clans?region=EU"))
	assert.Equal(t, []string{first, second, third}, list(t, "/clans?region="))
	assert.Equal(t, []string{first, second, third}, list(t, "/clans?sort_by=unknown"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/clans?region=APAC"))
	testutil.AssertStatusOK(t, rr)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestMalformedIDIsNotFound(t *testing.T) {
	router := newClanRouter(t)

	for _, path := range []string{"/clans/not-a-uuid", "/clans/00000000-0000-0000-0000-000000000000"} {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, path))
		testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Clan not found.")

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path))
		testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Clan not found.")
	}
}

// HandlerErrorSuite covers server-fault mapping with a mocked service.
type HandlerErrorSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerErrorSuite(t *testing.T) {
	suite.Run(t, new(HandlerErrorSuite))
}

func (s *HandlerErrorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = newRouter(s.service)
}

func (s *HandlerErrorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerErrorSuite) TestStoreUnavailableIs503() {
	unavailable := dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "failed to list clans")
	s.service.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, unavailable)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/clans"))

	testutil.AssertStatusAndDetail(s.T(), rr, http.StatusServiceUnavailable, "Store unavailable.")
}

func (s *HandlerErrorSuite) TestUncodedErrorIs500WithoutLeakingCause() {
	s.service.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("pq: password authentication failed"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/clans/"+id.NewClanID().String()))

	testutil.AssertStatusAndDetail(s.T(), rr, http.StatusInternalServerError, "Internal server error.")
}

func (s *HandlerErrorSuite) TestCreatePassesNameAsSent() {
	s.service.EXPECT().Create(gomock.Any(), "  Gamma ", gomock.Nil()).Return(id.NewClanID(), nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/clans",
		map[string]string{"name": "  Gamma ", "region": "  "}))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *HandlerErrorSuite) TestListQueryParsing() {
	s.service.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.ListQuery) ([]*models.Clan, error) {
			s.Require().NotNil(q.Region)
			s.Equal("EU", *q.Region)
			s.Equal(models.SortField("name"), q.SortBy)
			return nil, nil
		})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/clans?region=EU&sort_by=name"))

	testutil.AssertStatusOK(s.T(), rr)
	s.JSONEq(`[]`, rr.Body.String())
}

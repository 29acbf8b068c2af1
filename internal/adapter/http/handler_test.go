package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/postgres"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type memoryMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryMediaStore) Upload(_ context.Context, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d%s", folder, len(s.objects), filepath.Ext(fileName))
	s.objects[key] = data
	return "https://media.test/" + key, nil
}

type testServer struct {
	*httptest.Server
	metrics *metrics.MetricsManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: postgres.NewGormLogger(log)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	listings := postgres.NewListingRepository(db)
	messages := postgres.NewMessageRepository(db)
	users := postgres.NewUserRepository(db)

	reputation := usecase.NewReputationUsecase(users, usecase.DefaultTrustIncrement, log, 5*time.Second)
	listingUC := usecase.NewListingUsecase(listings, users, nil, nil, log, 5*time.Second)
	messageUC := usecase.NewMessageUsecase(postgres.NewTransactor(db), listings, messages, users, reputation, nil, nil, nil, log, 5*time.Second)
	mediaUC := usecase.NewMediaUsecase(&memoryMediaStore{objects: map[string][]byte{}}, 1024, 5*time.Second, log)

	m := metrics.NewMetricsManager("lostfound-test")
	srv := httptest.NewServer(NewRouter(NewHandler(listingUC, messageUC, reputation, mediaUC, m, log), testSecret, log, m))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, metrics: m}
}

func token(t *testing.T, userID, username string) string {
	t.Helper()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Email:    username + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func blueWallet(images ...string) listingRequest {
	return listingRequest{
		Type:        "lost",
		Title:       "Blue Wallet",
		Description: "Blue leather wallet with a train pass",
		Category:    "Bags & Wallets",
		Location:    "Library, 2nd floor",
		EventDate:   "2024-05-01",
		IsValuable:  true,
		Images:      images,
	}
}

func TestPublicEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cats := decode[categoriesResponse](t, resp)
	assert.Equal(t, domain.Categories, cats.Categories)

	resp = srv.do(t, http.MethodGet, "/api/listings?type=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/listings/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[errorResponse](t, resp).Kind)

	resp = srv.do(t, http.MethodGet, "/api/users/nobody/profile", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJWTAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/listings", "", blueWallet("https://img/1.jpg"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/me/listings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "alice"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	resp = srv.do(t, http.MethodGet, "/api/me/listings", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "alice"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	resp = srv.do(t, http.MethodGet, "/api/me/listings", wrongAlg, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	resp = srv.do(t, http.MethodGet, "/api/me/listings", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token has expired", decode[errorResponse](t, resp).Error)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "ghost"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	resp = srv.do(t, http.MethodGet, "/api/me/listings", noUser, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListingLifecycleAndReunion(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice-id", "alice")
	bob := token(t, "bob-id", "bob")

	resp := srv.do(t, http.MethodPost, "/api/listings", alice, blueWallet("https://img/front.jpg", "https://img/back.jpg"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[listingResponse](t, resp)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, "alice-id", created.OwnerID)
	require.Len(t, created.Images, 2)
	assert.Equal(t, "https://img/front.jpg", created.Images[0].ImageURL)
	assert.Equal(t, 1, created.Images[1].OrderIndex)

	resp = srv.do(t, http.MethodGet, "/api/listings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	details := decode[listingDetailsResponse](t, resp)
	assert.Equal(t, "Blue Wallet", details.Listing.Title)
	assert.Equal(t, "alice", details.Owner.Username)
	assert.Equal(t, int64(0), details.Owner.TrustScore)

	resp = srv.do(t, http.MethodGet, "/api/listings?type=lost&q=WALLET", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[[]listingResponse](t, resp)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	resp = srv.do(t, http.MethodGet, "/api/listings?type=found", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]listingResponse](t, resp))

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/reunion", alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no one has messaged yet")

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/messages", alice, messageRequest{Content: "hello me"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/messages", bob, messageRequest{Content: "I found it at the cafe"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := decode[messageResponse](t, resp)
	assert.Equal(t, "alice-id", sent.ReceiverID)
	assert.False(t, sent.IsRead)

	resp = srv.do(t, http.MethodGet, "/api/messages/inbox", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]messageResponse](t, resp)
	require.Len(t, inbox, 1)
	assert.Equal(t, sent.ID, inbox[0].ID)

	resp = srv.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/read", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/read", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[messageResponse](t, resp).IsRead)

	resp = srv.do(t, http.MethodGet, "/api/listings/"+created.ID+"/messages", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]messageResponse](t, resp), 1)

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/reunion", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/reunion", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reunion := decode[reunionResponse](t, resp)
	assert.Equal(t, "closed", reunion.Listing.Status)
	assert.Equal(t, "bob-id", reunion.CreditedUser.UserID)
	assert.Equal(t, int64(10), reunion.CreditedUser.TrustScore)
	assert.Equal(t, int64(1), reunion.CreditedUser.SuccessfulReunions)
	assert.Equal(t, sent.ID, reunion.MessageID)

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/reunion", alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/users/bob-id/profile", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[profileResponse](t, resp)
	assert.Equal(t, int64(10), profile.TrustScore)
	assert.Equal(t, int64(1), profile.SuccessfulReunions)

	resp = srv.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]listingResponse](t, resp), "closed listings leave search")

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/messages", bob, messageRequest{Content: "still there?"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/me/listings", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decode[[]listingResponse](t, resp)
	require.Len(t, mine, 1)
	assert.Equal(t, "closed", mine[0].Status)

	assert.Equal(t, float64(1), testutil.ToFloat64(srv.metrics.ReunionsConfirmedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(srv.metrics.MessagesSentTotal))
}

func TestCreateAndUpdateValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice-id", "alice")
	bob := token(t, "bob-id", "bob")

	resp := srv.do(t, http.MethodPost, "/api/listings", alice, blueWallet())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	six := []string{"a", "b", "c", "d", "e", "f"}
	resp = srv.do(t, http.MethodPost, "/api/listings", alice, blueWallet(six...))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", decode[errorResponse](t, resp).Kind)

	noType := blueWallet("https://img/1.jpg")
	noType.Type = ""
	resp = srv.do(t, http.MethodPost, "/api/listings", alice, noType)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/listings", bytes.NewBufferString("{broken"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+alice)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/listings", alice, blueWallet("https://img/1.jpg"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[listingResponse](t, resp)

	edit := blueWallet("https://img/2.jpg", "https://img/3.jpg", "https://img/4.jpg")
	edit.Title = "Navy Wallet"
	resp = srv.do(t, http.MethodPut, "/api/listings/"+created.ID, bob, edit)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPut, "/api/listings/"+created.ID, alice, edit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[listingResponse](t, resp)
	assert.Equal(t, "Navy Wallet", updated.Title)
	assert.Len(t, updated.Images, 3)

	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/close", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, "/api/listings/"+created.ID+"/close", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "closed", decode[listingResponse](t, resp).Status)

	resp = srv.do(t, http.MethodPut, "/api/listings/"+created.ID, alice, edit)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCloseListing_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice-id", "alice")

	resp := srv.do(t, http.MethodPost, "/api/listings", alice, blueWallet("https://img/1.jpg"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[listingResponse](t, resp)

	const callers = 6
	statuses := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/listings/"+created.ID+"/close", nil)
			req.Header.Set("Authorization", "Bearer "+alice)
			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			_ = r.Body.Close()
			statuses[i] = r.StatusCode
		}(i)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, conflict)
}

func multipartImage(t *testing.T, field, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, "alice-id", "alice")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(field, name string, data []byte) *http.Response {
		body, contentType := multipartImage(t, field, name, data)
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/images", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+alice)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := upload("image", "wallet.png", png)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, decode[uploadResponse](t, resp).URL, "https://media.test/listings/alice-id/")

	resp = upload("image", "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload("image", "fake.png", []byte("plain text pretending"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload("image", "huge.png", append(png, bytes.Repeat([]byte{1}, 2048)...))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload("photo", "wallet.png", png)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, float64(1), testutil.ToFloat64(srv.metrics.ImagesUploadedTotal))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{domain.Invalid("title", "is required"), http.StatusBadRequest, "validation"},
		{domain.ErrListingNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrSelfMessage, http.StatusForbidden, "forbidden"},
		{domain.ErrListingClosed, http.StatusConflict, "conflict"},
		{domain.Unavailable("find listing", errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("unexpected"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, kind := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, kind, tc.err.Error())
	}
}

func TestFail_UnavailableSetsRetryAfter(t *testing.T) {
	h := &Handler{logger: logger.NewNop(), metrics: metrics.NewMetricsManager("lostfound-test")}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)

	h.fail(rec, req, domain.Unavailable("find open listings", context.DeadlineExceeded))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, retryAfterSeconds, rec.Header().Get("Retry-After"))
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unavailable", body.Kind)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.APIErrorsTotal.WithLabelValues("unmatched", "unavailable")))
}

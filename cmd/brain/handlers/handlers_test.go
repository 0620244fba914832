package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lyzr/secondbrain/cmd/brain/middleware"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/service"
	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/stretchr/testify/require"
)

// call runs h against a JSON request. A non-nil user is stored in the
// context the way the auth middleware does it.
func call(t *testing.T, h echo.HandlerFunc, method, path, body string, user uuid.UUID, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if user != uuid.Nil {
		c.Set(string(middleware.UserIDKey), user)
	}
	var names, values []string
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type fakeAccounts struct {
	signupErr error
	token     string
	signinErr error
	users     map[uuid.UUID]*models.User
}

func (f *fakeAccounts) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.User{ID: uuid.New(), Username: username}, nil
}

func (f *fakeAccounts) Signin(ctx context.Context, username, password string) (string, error) {
	return f.token, f.signinErr
}

func (f *fakeAccounts) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, service.ErrUnknownUser
}

type fakeContents struct {
	created   []service.ContentInput
	createErr error
	job       *models.IngestionJob
	views     []*models.ContentView
	patches   []string
	updateErr error
	deleted   bool
	deleteIDs []uuid.UUID
	statusErr error
}

func (f *fakeContents) Create(ctx context.Context, userID uuid.UUID, in service.ContentInput) (*models.Content, *models.IngestionJob, error) {
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.created = append(f.created, in)
	return &models.Content{ID: uuid.New(), UserID: userID, Title: in.Title}, f.job, nil
}

func (f *fakeContents) List(ctx context.Context, userID uuid.UUID) ([]*models.ContentView, error) {
	return f.views, nil
}

func (f *fakeContents) Update(ctx context.Context, userID, contentID uuid.UUID, patch []byte) (*models.Content, *models.IngestionJob, error) {
	if f.updateErr != nil {
		return nil, nil, f.updateErr
	}
	f.patches = append(f.patches, string(patch))
	return &models.Content{ID: contentID, UserID: userID}, f.job, nil
}

func (f *fakeContents) Delete(ctx context.Context, userID, contentID uuid.UUID) (bool, error) {
	f.deleteIDs = append(f.deleteIDs, contentID)
	return f.deleted, nil
}

func (f *fakeContents) IngestionStatus(ctx context.Context, userID, contentID uuid.UUID) (*models.IngestionJob, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.job, nil
}

type fakeShares struct {
	hash    string
	owners  map[string]uuid.UUID
	revoked int
}

func (f *fakeShares) Enable(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.hash, nil
}

func (f *fakeShares) Disable(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.revoked, nil
}

func (f *fakeShares) Resolve(ctx context.Context, hash string) (uuid.UUID, error) {
	if id, ok := f.owners[hash]; ok {
		return id, nil
	}
	return uuid.Nil, service.ErrShareLinkNotFound
}

type fakeAsker struct {
	matches []vectorstore.Match
	err     error
	query   string
	topK    int
	filter  string
}

func (f *fakeAsker) Ask(ctx context.Context, userID uuid.UUID, query string, topK int, filter string) ([]vectorstore.Match, error) {
	f.query, f.topK, f.filter = query, topK, filter
	return f.matches, f.err
}

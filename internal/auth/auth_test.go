package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store/memstore"
	"github.com/Sajeel041/FIX-POINT/internal/utils"
)

type welcomeRecorder struct{ ids []string }

func (w *welcomeRecorder) Welcome(_ context.Context, u *model.User) { w.ids = append(w.ids, u.ID) }

type fixture struct {
	e       *echo.Echo
	store   *memstore.Store
	tokens  *utils.TokenManager
	welcome *welcomeRecorder
	h       *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	e := echo.New()
	e.Validator = middleware.NewValidator()
	s := memstore.New()
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	w := &welcomeRecorder{}
	return &fixture{
		e:       e,
		store:   s,
		tokens:  tokens,
		welcome: w,
		h:       NewHandler(s, tokens, WithWelcomer(w), WithBcryptCost(bcrypt.MinCost)),
	}
}

func (f *fixture) call(h echo.HandlerFunc, body string, u *model.User) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	if u != nil {
		c.Set("user", u)
	}
	return rec, h(c)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupCustomer(t *testing.T) {
	f := newFixture(t)
	rec, err := f.call(f.h.Signup, `{"name":" Ayesha ","email":" Ayesha@Example.com ","password":"secret1"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Ayesha", body["name"])
	assert.Equal(t, "ayesha@example.com", body["email"])
	assert.Equal(t, "customer", body["role"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body, "password")

	id, err := f.tokens.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, body["_id"], id)
	assert.Equal(t, []string{id}, f.welcome.ids)

	stored, err := f.store.GetUserByEmail(context.Background(), "ayesha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestSignupMerchantCreatesProfile(t *testing.T) {
	f := newFixture(t)
	rec, err := f.call(f.h.Signup, `{"name":"Bilal","email":"bilal@example.com","password":"secret1",
		"roles":["merchant","customer"],"merchantData":{"skillCategory":"Plumber","yearsExperience":7,"about":" pipes "}}`, nil)
	require.NoError(t, err)
	body := decode(t, rec)
	assert.Equal(t, "merchant", body["role"])
	assert.ElementsMatch(t, []interface{}{"merchant", "customer"}, body["roles"])

	p, err := f.store.GetProfile(context.Background(), body["_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, model.SkillPlumber, p.SkillCategory)
	assert.Equal(t, 7, p.YearsExperience)
	assert.Equal(t, "pipes", p.About)
	assert.Equal(t, model.DefaultRating, p.Rating)
	assert.Equal(t, model.AvailabilityOffline, p.Availability)
}

func TestSignupLegacyRoleDefaultsProfile(t *testing.T) {
	f := newFixture(t)
	rec, err := f.call(f.h.Signup, `{"name":"Kamran","email":"k@example.com","password":"secret1","role":"merchant"}`, nil)
	require.NoError(t, err)
	p, err := f.store.GetProfile(context.Background(), decode(t, rec)["_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, model.SkillElectrician, p.SkillCategory)
}

func TestSignupRejections(t *testing.T) {
	f := newFixture(t)
	_, err := f.call(f.h.Signup, `{"name":"A","email":"a@example.com","password":"secret1"}`, nil)
	require.NoError(t, err)

	cases := []struct {
		name, body, message string
	}{
		{"duplicate email", `{"name":"A","email":"A@example.com","password":"secret1"}`, "User already exists"},
		{"missing name", `{"email":"b@example.com","password":"secret1"}`, "name is required"},
		{"bad email", `{"name":"B","email":"nope","password":"secret1"}`, "email must be a valid email address"},
		{"short password", `{"name":"B","email":"b@example.com","password":"abc"}`, "password must be at least 6 characters"},
		{"unknown role", `{"name":"B","email":"b@example.com","password":"secret1","roles":["admin"]}`, "Invalid role"},
		{"bad skill", `{"name":"B","email":"b@example.com","password":"secret1","role":"merchant","merchantData":{"skillCategory":"Mason"}}`,
			"skillCategory must be one of the listed services"},
		{"malformed", `{"name":`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.call(f.h.Signup, tc.body, nil)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Validation))
			assert.Equal(t, tc.message, apperr.Message(err))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	_, err := f.call(f.h.Signup, `{"name":"A","email":"a@example.com","password":"secret1"}`, nil)
	require.NoError(t, err)

	rec, err := f.call(f.h.Login, `{"email":"A@Example.com","password":"secret1"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])

	_, err = f.call(f.h.Login, `{"email":"a@example.com","password":"wrong"}`, nil)
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
	assert.Equal(t, "Invalid credentials", apperr.Message(err))

	_, err = f.call(f.h.Login, `{"email":"ghost@example.com","password":"secret1"}`, nil)
	assert.Equal(t, "Invalid credentials", apperr.Message(err))

	_, err = f.call(f.h.Login, `{"email":"a@example.com"}`, nil)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Equal(t, "Email and password are required", apperr.Message(err))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	rec, err := f.call(f.h.Signup, `{"name":"M","email":"m@example.com","password":"secret1","role":"merchant"}`, nil)
	require.NoError(t, err)
	u, err := f.store.GetUser(context.Background(), decode(t, rec)["_id"].(string))
	require.NoError(t, err)

	rec, err = f.call(f.h.Me, "", u)
	require.NoError(t, err)
	body := decode(t, rec)
	assert.Contains(t, body, "user")
	assert.Contains(t, body, "profile")

	_, err = f.call(f.h.Me, "", nil)
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
}

func TestAddRole(t *testing.T) {
	f := newFixture(t)
	rec, err := f.call(f.h.Signup, `{"name":"C","email":"c@example.com","password":"secret1"}`, nil)
	require.NoError(t, err)
	ctx := context.Background()
	u, err := f.store.GetUser(ctx, decode(t, rec)["_id"].(string))
	require.NoError(t, err)

	rec, err = f.call(f.h.AddRole, `{"role":"merchant"}`, u)
	require.NoError(t, err)
	body := decode(t, rec)
	assert.Equal(t, "Role merchant added successfully", body["message"])
	view := body["user"].(map[string]interface{})
	assert.Equal(t, "customer", view["role"])
	assert.ElementsMatch(t, []interface{}{"customer", "merchant"}, view["roles"])

	first, err := f.store.GetProfile(ctx, u.ID)
	require.NoError(t, err)

	// granting the role again keeps the existing profile
	u, err = f.store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.call(f.h.AddRole, `{"role":"merchant"}`, u)
	require.NoError(t, err)
	again, err := f.store.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = f.call(f.h.AddRole, `{"role":"admin"}`, u)
	assert.Equal(t, "Invalid role", apperr.Message(err))
}

package user

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

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store/memstore"
)

func seed(t *testing.T) (*memstore.Store, *model.User, *model.User) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := memstore.New()
	customer := &model.User{ID: "c1", Name: "Sana", Email: "sana@example.com", Phone: "0300",
		Roles: model.Roles{model.RoleCustomer}, CreatedAt: now, UpdatedAt: now}
	merchant := &model.User{ID: "m1", Name: "Usman", Email: "usman@example.com",
		Roles: model.Roles{model.RoleMerchant}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(ctx, customer))
	require.NoError(t, s.CreateUser(ctx, merchant))
	require.NoError(t, s.CreateProfile(ctx, model.NewMerchantProfile("p1", "m1", model.SkillCarpenter, now)))
	return s, customer, merchant
}

func TestNewView(t *testing.T) {
	v := NewView(&model.User{ID: "u", Roles: model.Roles{model.RoleMerchant, model.RoleCustomer}})
	assert.Equal(t, model.RoleMerchant, v.Role)

	v = NewView(&model.User{ID: "u"})
	assert.Equal(t, model.RoleCustomer, v.Role)
	assert.Equal(t, model.Roles{model.RoleCustomer}, v.Roles)
}

func TestGetPublicProfile(t *testing.T) {
	s, _, _ := seed(t)
	h := NewHandler(s)
	e := echo.New()

	get := func(id string) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return rec, h.GetPublicProfile(c)
	}

	rec, err := get("m1")
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Usman", out["name"])
	assert.NotContains(t, out, "email")
	assert.Equal(t, "Carpenter", out["merchantProfile"].(map[string]interface{})["skillCategory"])

	rec, err = get("c1")
	require.NoError(t, err)
	assert.NotContains(t, rec.Body.String(), "merchantProfile")
	assert.NotContains(t, rec.Body.String(), "0300")

	_, err = get("nobody")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateProfile(t *testing.T) {
	s, customer, _ := seed(t)
	h := NewHandler(s)
	e := echo.New()
	e.Validator = middleware.NewValidator()

	patch := func(body string, u *model.User) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if u != nil {
			c.Set("user", u)
		}
		return rec, h.UpdateProfile(c)
	}

	rec, err := patch(`{"phone":" 0311 "}`, customer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	u, err := s.GetUser(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Sana", u.Name)
	assert.Equal(t, "0311", u.Phone)

	_, err = patch(`{"name":"   "}`, customer)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = patch(`{"name":"`+strings.Repeat("x", 101)+`"}`, customer)
	assert.Equal(t, "name must be at most 100 characters", apperr.Message(err))

	_, err = patch(`{}`, nil)
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
}

type countingGetter struct {
	Getter
	calls map[string]int
}

func (g *countingGetter) GetUser(ctx context.Context, id string) (*model.User, error) {
	g.calls[id]++
	return g.Getter.GetUser(ctx, id)
}

func TestContactsResolveOncePerID(t *testing.T) {
	s, customer, _ := seed(t)
	g := &countingGetter{Getter: s, calls: map[string]int{}}
	contacts := NewContacts(g)
	ctx := context.Background()

	first, err := contacts.Get(ctx, customer.ID)
	require.NoError(t, err)
	again, err := contacts.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, &Contact{ID: "c1", Name: "Sana", Email: "sana@example.com", Phone: "0300"}, first)
	assert.Equal(t, 1, g.calls["c1"])

	missing, err := contacts.Get(ctx, "deleted")
	require.NoError(t, err)
	assert.Equal(t, &Contact{ID: "deleted"}, missing)

	none, err := contacts.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
	none, err = contacts.Optional(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	id := "m1"
	m, err := contacts.Optional(ctx, &id)
	require.NoError(t, err)
	assert.Equal(t, "Usman", m.Name)
	assert.NotContains(t, g.calls, "")
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires a Handler over an in-memory family holding a couple
// (ids 1 and 2) and their son (id 3).
func newTestServer(t *testing.T) (*gin.Engine, *handlers.Family) {
	t.Helper()
	ctx := context.Background()
	f := handlers.NewFamily("test", mocks.NewFamilyStore(), handlers.Limits{MaxNameLength: 20, MaxGeneration: 100})

	for _, in := range []handlers.MemberInput{
		{Name: "Luo Cheng", Gender: entities.Male, Generation: 1},
		{Name: "Li Mei", Gender: entities.Female, Generation: 1},
		{Name: "Luo Ming", Gender: entities.Male, Generation: 2},
	} {
		_, err := f.Members.HandleCreate(ctx, in)
		require.NoError(t, err)
	}
	_, err := f.Relationships.HandleAssert(ctx, 1, 2, entities.Wife)
	require.NoError(t, err)
	_, err = f.Relationships.HandleAssert(ctx, 1, 3, entities.EldestSon)
	require.NoError(t, err)

	h := New(f)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/relation-codes", h.RelationCodes)
	r.GET("/members", h.ListMembers)
	r.GET("/members/search", h.SearchMembers)
	r.POST("/members", h.CreateMember)
	r.GET("/members/:id", h.GetMember)
	r.PATCH("/members/:id", h.UpdateMember)
	r.DELETE("/members/:id", h.DeleteMember)
	r.GET("/relationships", h.ListRelationships)
	r.POST("/relationships", h.CreateRelationship)
	r.GET("/kinship", h.Kinship)
	r.GET("/kinship-network", h.KinshipNetwork)
	return r, f
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["family"])
	assert.EqualValues(t, 3, body["members"])
}

func TestRelationCodes(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/relation-codes", "")
	require.Equal(t, http.StatusOK, w.Code)
	codes := decode[[]entities.RelationCodeInfo](t, w)
	assert.Len(t, codes, int(entities.MaxRelationCode))
	assert.Equal(t, entities.Husband, codes[0].Code)
}

func TestMembers(t *testing.T) {
	r, _ := newTestServer(t)

	t.Run("list", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]entities.Member](t, w), 3)
	})

	t.Run("first match by name", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members?name=Luo", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decode[entities.Member](t, w).ID)
	})

	t.Run("name not found", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members?name=Zhang", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("blank name", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members?name=%20", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Name cannot be empty"}`, w.Body.String())
	})

	t.Run("control characters", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members?name=a%00b", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Name is invalid"}`, w.Body.String())
	})

	t.Run("search", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members/search?name=Luo&limit=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]entities.Member](t, w), 1)

		w = do(r, http.MethodGet, "/members/search?name=Luo&limit=0", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := do(r, http.MethodGet, "/members/2", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Li Mei", decode[entities.Member](t, w).Name)

		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/members/99", "").Code)
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/members/abc", "").Code)
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/members/-1", "").Code)
	})
}

func TestCreateUpdateDeleteMember(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/members", `{"name":"Luo Fang","generation":2,"gender":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Member](t, w)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, entities.Female, created.Gender)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"name":`, "Invalid JSON format"},
		{"empty name", `{"name":"","generation":1,"gender":0}`, "Name cannot be empty"},
		{"missing gender", `{"name":"A","generation":1}`, "Missing required fields: name, generation and gender are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/members", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}

	t.Run("name too long", func(t *testing.T) {
		w := do(r, http.MethodPost, "/members", `{"name":"`+strings.Repeat("x", 21)+`","generation":1,"gender":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = do(r, http.MethodPatch, "/members/4", `{"remark":"adopted"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "adopted", decode[entities.Member](t, w).Remark)

	w = do(r, http.MethodPatch, "/members/4", `{"gender":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/members/3", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Member deleted successfully", body["message"])
	assert.Greater(t, body["relationshipsRemoved"], float64(0))

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/members/3", "").Code)
}

func TestCreateRelationship(t *testing.T) {
	r, f := newTestServer(t)

	_, err := f.Members.HandleCreate(context.Background(), handlers.MemberInput{
		Name: "Luo Fang", Gender: entities.Female, Generation: 2,
	})
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/relationships", `{"member1ID":1,"member2ID":4,"relationType":8}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Relationship added successfully", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["created"])

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"malformed", `not json`, http.StatusBadRequest, "Invalid JSON format"},
		{"missing fields", `{"member1ID":1}`, http.StatusBadRequest,
			"Missing required fields: member1ID, member2ID, and relationType are required"},
		{"code too large", `{"member1ID":1,"member2ID":2,"relationType":33}`, http.StatusBadRequest,
			"relationType must be between 1 and 32"},
		{"same member", `{"member1ID":2,"member2ID":2,"relationType":1}`, http.StatusBadRequest,
			"member1ID and member2ID cannot be the same"},
		{"negative id", `{"member1ID":-1,"member2ID":2,"relationType":1}`, http.StatusBadRequest,
			"member1ID must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/relationships", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}

	t.Run("rejected", func(t *testing.T) {
		// A son cannot be recorded as a daughter.
		w := do(r, http.MethodPost, "/relationships", `{"member1ID":1,"member2ID":3,"relationType":8}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "rejected")
	})

	t.Run("unknown member", func(t *testing.T) {
		w := do(r, http.MethodPost, "/relationships", `{"member1ID":1,"member2ID":99,"relationType":9}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListRelationships(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/relationships", "")
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]map[string]any](t, w)
	assert.NotEmpty(t, all)

	w = do(r, http.MethodGet, "/relationships?memberId=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, v := range decode[[]map[string]any](t, w) {
		assert.EqualValues(t, 2, v["fromId"])
	}

	w = do(r, http.MethodGet, "/relationships?memberID=2&direction=involving", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]map[string]any](t, w))

	w = do(r, http.MethodGet, "/relationships?relationType=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	wives := decode[[]map[string]any](t, w)
	require.Len(t, wives, 1)
	assert.EqualValues(t, 1, wives[0]["fromId"])
	assert.EqualValues(t, 2, wives[0]["toId"])

	w = do(r, http.MethodGet, "/relationships?relationId=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["id"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/relationships?relationId=999", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/relationships?relationType=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/relationships?relationType=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/relationships?memberId=0", "").Code)
}

func TestKinship(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/kinship?member1ID=1&member2ID=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[entities.KinshipResult](t, w)
	assert.True(t, result.Related)
	assert.True(t, strings.HasPrefix(result.Description, entities.KinshipDirectPrefix))

	w = do(r, http.MethodGet, "/kinship?member1ID=1&member2ID=99", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.KinshipMemberMissing, decode[entities.KinshipResult](t, w).Description)

	w = do(r, http.MethodGet, "/kinship?member1ID=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"member2ID cannot be empty"}`, w.Body.String())
}

func TestKinshipNetwork(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/kinship-network?memberID=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	network := decode[entities.Network](t, w)
	assert.Equal(t, int64(3), network.CenterID)
	assert.Equal(t, entities.DefaultNetworkGenerations, network.Generations)
	assert.Len(t, network.Nodes, 3)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/kinship-network?memberID=3&generations=5", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/kinship-network?memberID=42", "").Code)
}

package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-classifieds/internal/core/auth"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/repo"
	"go-classifieds/internal/storage"
)

func newTestEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.RefreshToken{},
		&domain.Category{},
		&domain.Announcement{},
		&domain.Comment{},
	))
	require.NoError(t, repo.NewCategoryRepo(db).Create(&domain.Category{ID: "cat1", Name: "Bikes"}))

	files, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	r := NewAPIEngine(Deps{
		Log:        zap.NewNop(),
		DB:         db,
		JWTer:      &auth.JWTer{Secret: []byte("s"), Issuer: "test", TTL: time.Minute},
		Files:      files,
		RefreshTTL: time.Hour,
	})
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func announcementForm(t *testing.T, withImage bool, overrides map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       "Bike",
		"category":    "cat1",
		"price":       "100",
		"description": "Good bike",
		"location":    "Town",
		"email":       "a@b.com",
		"phoneNumber": "1234567890",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "bike.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/user/register", map[string]string{
		"name": "Alice", "email": email, "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func createAnnouncement(t *testing.T, r *gin.Engine, token string) domain.Announcement {
	t.Helper()
	body, contentType := announcementForm(t, true, nil)
	req := httptest.NewRequest(http.MethodPost, "/announcement", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a domain.Announcement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	return a
}

func TestCreateWithoutTokenRejected(t *testing.T) {
	r, db := newTestEngine(t)

	body, contentType := announcementForm(t, true, nil)
	req := httptest.NewRequest(http.MethodPost, "/announcement", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var eb struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	assert.Equal(t, "auth", eb.Error.Kind)

	var count int64
	require.NoError(t, db.Model(&domain.Announcement{}).Count(&count).Error)
	assert.Zero(t, count, "nothing persisted")
}

func TestCreateThenGetOverHTTP(t *testing.T) {
	r, _ := newTestEngine(t)
	token := registerUser(t, r, "alice@example.com")
	a := createAnnouncement(t, r, token)

	w := doJSON(t, r, http.MethodGet, "/announcement/"+a.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Announcement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Bike", got.Title)
	assert.Equal(t, 100, got.Price)
	assert.NotEmpty(t, got.Image)
}

func TestCreateValidationSurfacesFields(t *testing.T) {
	r, _ := newTestEngine(t)
	token := registerUser(t, r, "alice@example.com")

	body, contentType := announcementForm(t, true, map[string]string{"title": "ab", "price": "0"})
	req := httptest.NewRequest(http.MethodPost, "/announcement", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var eb struct {
		Error struct {
			Kind   string            `json:"kind"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	assert.Equal(t, "validation", eb.Error.Kind)
	assert.Contains(t, eb.Error.Fields, "title")
	assert.Contains(t, eb.Error.Fields, "price")
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	r, _ := newTestEngine(t)
	owner := registerUser(t, r, "owner@example.com")
	intruder := registerUser(t, r, "intruder@example.com")
	a := createAnnouncement(t, r, owner)

	body, contentType := announcementForm(t, false, map[string]string{"title": "Hijacked"})
	req := httptest.NewRequest(http.MethodPatch, "/announcement/"+a.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+intruder)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 资源未被改动
	w2 := doJSON(t, r, http.MethodGet, "/announcement/"+a.ID, nil, nil)
	var got domain.Announcement
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got))
	assert.Equal(t, "Bike", got.Title)
}

func TestDeleteByOwner(t *testing.T) {
	r, _ := newTestEngine(t)
	owner := registerUser(t, r, "owner@example.com")
	a := createAnnouncement(t, r, owner)

	req := httptest.NewRequest(http.MethodDelete, "/announcement/"+a.ID, nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w2 := doJSON(t, r, http.MethodGet, "/announcement/"+a.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestListSentinelCategoryEqualsNoFilter(t *testing.T) {
	r, _ := newTestEngine(t)
	token := registerUser(t, r, "alice@example.com")
	for i := 0; i < 3; i++ {
		createAnnouncement(t, r, token)
	}

	read := func(path string) domain.Page {
		w := doJSON(t, r, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var p domain.Page
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		return p
	}

	plain := read("/announcement")
	sentinel := read("/announcement?category=" + domain.CategoryAnyID)
	assert.Equal(t, plain.Total, sentinel.Total)
	assert.Equal(t, len(plain.Items), len(sentinel.Items))
}

func TestListExceptionsAndPaging(t *testing.T) {
	r, _ := newTestEngine(t)
	token := registerUser(t, r, "alice@example.com")
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, createAnnouncement(t, r, token).ID)
	}

	path := fmt.Sprintf("/announcement?exceptions=%s,%s&page=1&pageSize=2", ids[0], ids[1])
	w := doJSON(t, r, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p domain.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, int64(3), p.Total)
	assert.LessOrEqual(t, len(p.Items), 2)
	for _, a := range p.Items {
		assert.NotEqual(t, ids[0], a.ID)
		assert.NotEqual(t, ids[1], a.ID)
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	r, _ := newTestEngine(t)

	w := doJSON(t, r, http.MethodPost, "/user/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var refresh string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refresh = ck.Value
		}
	}
	require.NotEmpty(t, refresh)

	req := httptest.NewRequest(http.MethodPost, "/user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &out))
	assert.NotEmpty(t, out.AccessToken)

	// 旧 refresh token 已旋转
	req3 := httptest.NewRequest(http.MethodPost, "/user/refresh", nil)
	req3.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusUnauthorized, w3.Code)
}

func TestRefreshFailureCookieHandling(t *testing.T) {
	r, db := newTestEngine(t)

	w := doJSON(t, r, http.MethodPost, "/user/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var refresh string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refresh = ck.Value
		}
	}
	require.NotEmpty(t, refresh)

	clearedCookie := func(w *httptest.ResponseRecorder) bool {
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "refreshToken" && ck.Value == "" {
				return true
			}
		}
		return false
	}

	// 瞬时 DB 故障：token 行还在，cookie 必须保留，客户端可以重试
	require.NoError(t, db.Migrator().RenameTable("refresh_tokens", "refresh_tokens_bak"))
	req := httptest.NewRequest(http.MethodPost, "/user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	require.Equal(t, http.StatusInternalServerError, w2.Code)
	assert.False(t, clearedCookie(w2), "transient failure must not clear the refresh cookie")

	// 故障恢复后同一 cookie 仍能续期
	require.NoError(t, db.Migrator().RenameTable("refresh_tokens_bak", "refresh_tokens"))
	req = httptest.NewRequest(http.MethodPost, "/user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req)
	require.Equal(t, http.StatusOK, w3.Code, w3.Body.String())

	// 已吊销的 token 是终态，cookie 清除
	req = httptest.NewRequest(http.MethodPost, "/user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	w4 := httptest.NewRecorder()
	r.ServeHTTP(w4, req)
	require.Equal(t, http.StatusUnauthorized, w4.Code)
	assert.True(t, clearedCookie(w4), "revoked token clears the refresh cookie")
}

func TestActivateFlow(t *testing.T) {
	r, db := newTestEngine(t)
	registerUser(t, r, "alice@example.com")

	var u domain.User
	require.NoError(t, db.First(&u, "email = ?", "alice@example.com").Error)
	require.NotEmpty(t, u.ActivationCode)

	w := doJSON(t, r, http.MethodGet, "/user/activate/"+u.ActivationCode, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w2 := doJSON(t, r, http.MethodGet, "/user/activate/bogus", nil, nil)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm-manager/backend/internal/cache"
	"crm-manager/backend/internal/config"
	"crm-manager/backend/internal/handlers"
	"crm-manager/backend/internal/models"
	"crm-manager/backend/internal/repositories"
	"crm-manager/backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	return setupRouterWithCache(t, nil)
}

func setupRouterWithCache(t *testing.T, redisCache *cache.RedisCache) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repositories.OpenTestDB()
	require.NoError(t, err)

	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "development"},
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BCryptCost: 4},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	notifications := services.NewCachedNotificationService(services.NewNotificationService(), redisCache, time.Minute)

	attachments, err := services.NewAttachmentService(t.TempDir())
	require.NoError(t, err)

	return handlers.NewRouter(handlers.RouterConfig{
		DB:            db,
		Cache:         redisCache,
		Config:        cfg,
		Auth:          services.NewAuthService(cfg.Auth),
		Register:      services.NewRegisterService(cfg.Auth.BCryptCost),
		Users:         services.NewUserService(),
		Clients:       services.NewClientService(),
		Categories:    services.NewCategoryService(),
		Tasks:         services.NewTaskService(notifications),
		Comments:      services.NewCommentService(notifications),
		Notifications: notifications,
		Attachments:   attachments,
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func registerUser(t *testing.T, router *gin.Engine, username string) (token, userID string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "correct horse",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp handlers.AuthResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func TestRegisterAndLogin(t *testing.T) {
	router := setupRouter(t)

	token, _ := registerUser(t, router, "alice")
	require.NotEmpty(t, token)

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.AuthResponse
	decode(t, w, &resp)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "alice", resp.User.Username)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmailReturnsFieldError(t *testing.T) {
	router := setupRouter(t)
	registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":   "alice2",
		"email":      "alice@example.com",
		"password":   "correct horse",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Status      int               `json:"status"`
		Message     string            `json:"message"`
		FieldErrors map[string]string `json:"field_errors"`
	}
	decode(t, w, &body)
	assert.Equal(t, http.StatusConflict, body.Status)
	assert.Contains(t, body.FieldErrors, "email")
}

func TestProtectedRoutesRequireAuthentication(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{"/api/tasks", "/api/users", "/api/clients", "/api/categories"} {
		w := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")
	_, bobID := registerUser(t, router, "bob")

	// Client and category first.
	w := doJSON(t, router, http.MethodPost, "/api/clients", token, gin.H{
		"name":  "Acme",
		"email": "contact@acme.test",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var client models.Client
	decode(t, w, &client)

	w = doJSON(t, router, http.MethodPost, "/api/categories", token, gin.H{"name": "Billing"})
	require.Equal(t, http.StatusCreated, w.Code)
	var category models.Category
	decode(t, w, &category)

	w = doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{
		"title":             "Invoice review",
		"priority":          "high",
		"client_id":         client.ID,
		"category_ids":      []string{category.ID.String()},
		"assigned_user_ids": []string{bobID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	decode(t, w, &task)
	assert.Len(t, task.AssignedUsers, 1)
	assert.Len(t, task.Categories, 1)

	// Bob got an assignment notification.
	w = doJSON(t, router, http.MethodGet, "/api/notifications/user/"+bobID+"/unread/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &count)
	assert.Equal(t, int64(1), count.Count)

	// Status transition.
	w = doJSON(t, router, http.MethodPatch, "/api/tasks/"+task.ID.String()+"/status", token, gin.H{"status": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &task)
	assert.Equal(t, models.TaskStatusDone, task.Status)

	w = doJSON(t, router, http.MethodGet, "/api/tasks/status/done", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	decode(t, w, &tasks)
	assert.Len(t, tasks, 1)

	w = doJSON(t, router, http.MethodDelete, "/api/tasks/"+task.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentMentionFlowOverHTTP(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")
	_, bobID := registerUser(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{"title": "Prepare onboarding"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task models.Task
	decode(t, w, &task)

	// The author comes from the token, not the body.
	w = doJSON(t, router, http.MethodPost, "/api/comments", token, gin.H{
		"content":            "ping @bob",
		"task_id":            task.ID,
		"mentioned_user_ids": []string{bobID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment models.Comment
	decode(t, w, &comment)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "alice", comment.Author.Username)

	w = doJSON(t, router, http.MethodGet, "/api/notifications/user/"+bobID+"/unread", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread []models.Notification
	decode(t, w, &unread)
	require.Len(t, unread, 1)
	assert.Equal(t, models.NotificationTypeMention, unread[0].Type)

	// Mark everything read and verify the count drops.
	w = doJSON(t, router, http.MethodPatch, "/api/notifications/user/"+bobID+"/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var marked struct {
		MarkedRead int64 `json:"marked_read"`
	}
	decode(t, w, &marked)
	assert.Equal(t, int64(1), marked.MarkedRead)

	w = doJSON(t, router, http.MethodGet, "/api/notifications/user/"+bobID+"/unread/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &count)
	assert.Equal(t, int64(0), count.Count)
}

func TestAttachmentUploadAndDownload(t *testing.T) {
	router := setupRouter(t)
	token, aliceID := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{"title": "Prepare onboarding"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task models.Task
	decode(t, w, &task)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("quarterly numbers"))
	require.NoError(t, err)
	require.NoError(t, form.WriteField("task_id", task.ID.String()))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	upload := httptest.NewRecorder()
	router.ServeHTTP(upload, req)
	require.Equal(t, http.StatusCreated, upload.Code, upload.Body.String())

	var attachment models.Attachment
	decode(t, upload, &attachment)
	assert.Equal(t, "report.txt", attachment.FileName)
	// The uploader is whoever holds the token, regardless of the form contents.
	assert.Equal(t, aliceID, attachment.UploaderID.String())

	w = doJSON(t, router, http.MethodGet, "/api/attachments/"+attachment.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Attachment
	decode(t, w, &fetched)
	assert.Equal(t, attachment.ID, fetched.ID)
	assert.Equal(t, "report.txt", fetched.FileName)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/attachments/%s/download", attachment.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarterly numbers", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.txt")

	w = doJSON(t, router, http.MethodGet, "/api/attachments/task/"+task.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var attachments []models.Attachment
	decode(t, w, &attachments)
	assert.Len(t, attachments, 1)
}

func TestInvalidUUIDParamReturnsBadRequest(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodGet, "/api/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, w, &body)
	assert.Equal(t, "up", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["cache"])
}

func TestHealthReportsCacheMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCache(&cache.Config{Addr: mr.Addr()})
	router := setupRouterWithCache(t, redisCache)
	token, aliceID := registerUser(t, router, "alice")

	// First count is a miss that populates the cache, the second is a hit.
	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodGet, "/api/notifications/user/"+aliceID+"/unread/count", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Checks  map[string]string `json:"checks"`
		Metrics cache.Metrics     `json:"cache_metrics"`
	}
	decode(t, w, &body)
	assert.Equal(t, "up", body.Checks["cache"])
	assert.GreaterOrEqual(t, body.Metrics.Misses, int64(1))
	assert.GreaterOrEqual(t, body.Metrics.Hits, int64(1))
}

func TestCreateNotificationOverHTTP(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")
	_, bobID := registerUser(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/api/notifications", token, gin.H{
		"message":      "Weekly sync moved to Friday",
		"type":         models.NotificationTypeTaskAssigned,
		"recipient_id": bobID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Notification
	decode(t, w, &created)
	assert.Equal(t, bobID, created.RecipientID.String())
	assert.False(t, created.Read)

	w = doJSON(t, router, http.MethodGet, "/api/notifications/user/"+bobID+"/unread/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &count)
	assert.Equal(t, int64(1), count.Count)

	// An unknown recipient is a bad reference, not a server error.
	w = doJSON(t, router, http.MethodPost, "/api/notifications", token, gin.H{
		"message":      "orphan",
		"type":         models.NotificationTypeTaskAssigned,
		"recipient_id": uuid.Must(uuid.NewV4()),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/notifications", token, gin.H{"message": "no recipient"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndBulkDeleteComments(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{"title": "Prepare onboarding"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task models.Task
	decode(t, w, &task)

	for _, content := range []string{"first pass done", "needs a second look"} {
		w = doJSON(t, router, http.MethodPost, "/api/comments", token, gin.H{
			"content": content,
			"task_id": task.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/comments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	decode(t, w, &comments)
	assert.Len(t, comments, 2)

	w = doJSON(t, router, http.MethodDelete, "/api/comments/task/"+task.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &deleted)
	assert.Equal(t, int64(2), deleted.Deleted)

	w = doJSON(t, router, http.MethodGet, "/api/comments/task/"+task.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments = nil
	decode(t, w, &comments)
	assert.Empty(t, comments)

	w = doJSON(t, router, http.MethodDelete, "/api/comments/task/"+uuid.Must(uuid.NewV4()).String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserLookupByUsernameAndEmail(t *testing.T) {
	router := setupRouter(t)
	token, aliceID := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodGet, "/api/users/username/alice", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, aliceID, user.ID.String())

	w = doJSON(t, router, http.MethodGet, "/api/users/email/alice@example.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user = models.User{}
	decode(t, w, &user)
	assert.Equal(t, "alice", user.Username)

	w = doJSON(t, router, http.MethodGet, "/api/users/username/nobody", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientEmailCheck(t *testing.T) {
	router := setupRouter(t)
	token, _ := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/clients", token, gin.H{
		"name":  "Acme",
		"email": "contact@acme.test",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var check struct {
		Exists bool `json:"exists"`
	}

	w = doJSON(t, router, http.MethodGet, "/api/clients/check-email?email=contact@acme.test", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &check)
	assert.True(t, check.Exists)

	w = doJSON(t, router, http.MethodGet, "/api/clients/check-email?email=nobody@acme.test", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &check)
	assert.False(t, check.Exists)

	w = doJSON(t, router, http.MethodGet, "/api/clients/check-email", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

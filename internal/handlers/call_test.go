package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/calls"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

type silentFanout struct{}

func (silentFanout) BroadcastToUser(string, string, any) {}
func (silentFanout) UserConnectionCount(string) int { return 0 }

func setupCallRouter(handler *CallHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "alice")
		c.Next()
	})
	r.GET("/calls", handler.ListCalls)
	return r
}

func TestListCallsSuccess(t *testing.T) {
	callRepo := new(mocks.CallRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	engine := calls.NewEngine(callRepo, users, silentFanout{}, time.Minute, zerolog.Nop())
	router := setupCallRouter(NewCallHandler(engine))

	callRepo.On("ListForUser", mock.Anything, "alice").Return([]models.CallSession{
		{CallSessionID: "cs-1", CallerID: "alice", ReceiverID: "bob", Status: models.CallCompleted},
	}, nil).Once()
	users.On("BulkGet", mock.Anything, []string{"bob"}).Return([]models.User{{ID: "bob", Name: "Bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Calls []models.CallLogEntry `json:"calls"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "outgoing", resp.Calls[0].Direction)

	callRepo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestListCallsRepoError(t *testing.T) {
	callRepo := new(mocks.CallRepositoryMock)
	engine := calls.NewEngine(callRepo, new(mocks.UserRepositoryMock), silentFanout{}, time.Minute, zerolog.Nop())
	router := setupCallRouter(NewCallHandler(engine))

	callRepo.On("ListForUser", mock.Anything, "alice").Return(([]models.CallSession)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	callRepo.AssertExpectations(t)
}

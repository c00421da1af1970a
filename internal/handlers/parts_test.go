// internal/handlers/parts_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// The routes under test reject bad input before any service or database is
// touched, so the handlers are wired with nil services.
type PartsHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (suite *PartsHandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	handler := NewPartsHandler(nil, nil, nil)

	suite.router = gin.New()
	parts := suite.router.Group("/api/v1/parts")
	{
		parts.POST("/search", handler.SearchParts)
		parts.POST("/compatibility/batch", handler.BatchCheckCompatibility)
		parts.GET("/:id", handler.GetPart)
		parts.POST("/:id/compatibility", handler.CheckCompatibility)
		parts.GET("/:id/vehicles", handler.GetCompatibleVehicles)
	}
}

func (suite *PartsHandlerTestSuite) performRequest(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *PartsHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	require.False(suite.T(), response["success"].(bool))

	errObj, ok := response["error"].(map[string]interface{})
	require.True(suite.T(), ok)
	return errObj
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsMalformedJSON() {
	req := httptest.NewRequest("POST", "/api/v1/parts/search", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "BAD_REQUEST", errObj["code"])
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsShortQuery() {
	w := suite.performRequest("POST", "/api/v1/parts/search", gin.H{"query": "x"})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])

	details := errObj["details"].([]interface{})
	require.Len(suite.T(), details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(suite.T(), "query", first["field"])
	assert.Equal(suite.T(), "min", first["tag"])
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsMissingQuery() {
	w := suite.performRequest("POST", "/api/v1/parts/search", gin.H{"limit": 5})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsImplausibleVehicleYear() {
	w := suite.performRequest("POST", "/api/v1/parts/search", gin.H{
		"query": "brake pads",
		"vehicle": gin.H{
			"make":  "Honda",
			"model": "Civic",
			"year":  1850,
		},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])

	details := errObj["details"].([]interface{})
	require.Len(suite.T(), details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(suite.T(), "year", first["field"])
	assert.Equal(suite.T(), "vehicle_year", first["tag"])
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsIncompleteVehicle() {
	w := suite.performRequest("POST", "/api/v1/parts/search", gin.H{
		"query": "brake pads",
		"vehicle": gin.H{
			"make": "Honda",
			"year": 2015,
		},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])

	details := errObj["details"].([]interface{})
	require.Len(suite.T(), details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(suite.T(), "model", first["field"])
	assert.Equal(suite.T(), "required", first["tag"])
}

func (suite *PartsHandlerTestSuite) TestSearchRejectsBadConditionFilter() {
	w := suite.performRequest("POST", "/api/v1/parts/search", gin.H{
		"query":   "brake pads",
		"filters": gin.H{"condition": "mint"},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])

	details := errObj["details"].([]interface{})
	require.Len(suite.T(), details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(suite.T(), "condition", first["field"])
	assert.Equal(suite.T(), "oneof", first["tag"])
}

func (suite *PartsHandlerTestSuite) TestGetPartRejectsMalformedID() {
	w := suite.performRequest("GET", "/api/v1/parts/not-a-uuid", nil)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "BAD_REQUEST", errObj["code"])
	assert.Equal(suite.T(), "Invalid part ID", errObj["message"])
}

func (suite *PartsHandlerTestSuite) TestCheckCompatibilityRejectsMalformedID() {
	w := suite.performRequest("POST", "/api/v1/parts/abc/compatibility", gin.H{
		"vehicle": gin.H{"make": "Honda", "model": "Civic", "year": 2015},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "BAD_REQUEST", errObj["code"])
	assert.Equal(suite.T(), "Invalid part ID", errObj["message"])
}

func (suite *PartsHandlerTestSuite) TestCheckCompatibilityRequiresVehicle() {
	w := suite.performRequest("POST", "/api/v1/parts/"+uuid.NewString()+"/compatibility", gin.H{})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])
}

func (suite *PartsHandlerTestSuite) TestBatchCheckRequiresPartIDs() {
	w := suite.performRequest("POST", "/api/v1/parts/compatibility/batch", gin.H{
		"vehicle": gin.H{"make": "Honda", "model": "Civic", "year": 2015},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", errObj["code"])

	details := errObj["details"].([]interface{})
	require.Len(suite.T(), details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(suite.T(), "partids", first["field"])
	assert.Equal(suite.T(), "required", first["tag"])
}

func (suite *PartsHandlerTestSuite) TestBatchCheckRejectsMalformedUUID() {
	w := suite.performRequest("POST", "/api/v1/parts/compatibility/batch", gin.H{
		"part_ids": []string{"not-a-uuid"},
		"vehicle":  gin.H{"make": "Honda", "model": "Civic", "year": 2015},
	})

	// uuid.UUID unmarshalling fails inside body binding
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "BAD_REQUEST", errObj["code"])
}

func (suite *PartsHandlerTestSuite) TestCompatibleVehiclesRejectsMalformedID() {
	w := suite.performRequest("GET", "/api/v1/parts/xyz/vehicles", nil)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	errObj := suite.decodeError(w)
	assert.Equal(suite.T(), "BAD_REQUEST", errObj["code"])
}

func TestPartsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PartsHandlerTestSuite))
}

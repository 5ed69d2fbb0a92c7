package testing

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// PerformRequest Helper for performing requests in tests.
func PerformRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			panic("failed to marshal request body: " + err.Error())
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

// MintToken issues a signed bearer token for test principals.
func MintToken(secret, voterID, name string, canVote, admin bool) string {
	claims := jwt.MapClaims{
		"sub":        voterID,
		"name":       name,
		"member_ref": "M-" + voterID,
		"can_vote":   canVote,
		"admin":      admin,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic("failed to sign test token: " + err.Error())
	}
	return signed
}

// AuthHeaders builds the Authorization header map for a test principal.
func AuthHeaders(secret, voterID, name string, canVote, admin bool) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + MintToken(secret, voterID, name, canVote, admin),
	}
}

package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorUsesHTTPStatusAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-9")

	Error(c, CodeUnprocessableEntity, "CheckoutError: phone is required")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status want 422 got %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.StatusCode != CodeUnprocessableEntity || resp.Msg != "CheckoutError: phone is required" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if resp.RequestID != "req-9" || resp.Data != nil {
		t.Fatalf("request id should be attached to the envelope, got %+v", resp)
	}
}

func TestSuccessWithPageFlattensEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessWithPage(c, []string{"VS-1"}, Pagination{Page: 2, PageSize: 20, Total: 21, TotalPage: 2})

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body["status_code"] != float64(0) || body["msg"] != "success" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if _, ok := body["request_id"]; ok {
		t.Fatalf("empty request id should be omitted: %v", body)
	}
	pagination, _ := body["pagination"].(map[string]interface{})
	if pagination["total_page"] != float64(2) {
		t.Fatalf("unexpected pagination: %v", body["pagination"])
	}
}

func TestHTTPStatusFallback(t *testing.T) {
	if got := httpStatus(CodeOK); got != http.StatusInternalServerError {
		t.Fatalf("non error code should map to 500, got %d", got)
	}
	if got := httpStatus(CodeNotFound); got != http.StatusNotFound {
		t.Fatalf("want 404 got %d", got)
	}
}

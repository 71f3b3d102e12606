package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photolab_miniapp/internal/service"
	"photolab_miniapp/internal/service/mocks"
	"photolab_miniapp/pkg/tbank"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newWebhookRouter(ps *mocks.MockPaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	r := &paymentRoutes{ps: ps}
	router.POST("/api/v1/payment/webhook", r.Webhook)

	return router
}

func postWebhook(t *testing.T, router *gin.Engine, n *tbank.Notification) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(n)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentRoutes_Webhook(t *testing.T) {
	notification := &tbank.Notification{
		TerminalKey: "TestTerminal",
		OrderID:     "order-1",
		Success:     true,
		Status:      tbank.StatusConfirmed,
		PaymentID:   13660,
		ErrorCode:   "0",
		Amount:      49900,
		Token:       "token",
	}

	tests := []struct {
		name         string
		handlerError error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Handled notification answers OK",
			handlerError: nil,
			expectedCode: http.StatusOK,
			expectedBody: "OK",
		},
		{
			name:         "Invalid signature",
			handlerError: service.ErrInvalidSignature,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Amount mismatch",
			handlerError: service.ErrAmountMismatch,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Unknown order",
			handlerError: service.ErrPaymentNotFound,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &mocks.MockPaymentService{}
			ps.On("HandleTBankNotification", mock.Anything, mock.MatchedBy(func(n *tbank.Notification) bool {
				return n.OrderID == "order-1" && n.Amount == 49900
			})).Return(tt.handlerError)

			router := newWebhookRouter(ps)
			w := postWebhook(t, router, notification)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
			ps.AssertExpectations(t)
		})
	}
}

func TestPaymentRoutes_Webhook_MalformedBody(t *testing.T) {
	ps := &mocks.MockPaymentService{}
	router := newWebhookRouter(ps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ps.AssertNotCalled(t, "HandleTBankNotification")
}

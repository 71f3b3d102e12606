package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service/mocks"
	"photolab_miniapp/pkg/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type stubPendingLister struct {
	payments []*model.Payment
}

func (s *stubPendingLister) ListPendingPaymentsByMethod(ctx context.Context, method model.PaymentMethod) ([]*model.Payment, error) {
	return s.payments, nil
}

func tonAPIStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getTransactions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTONWorker_CheckTransfers(t *testing.T) {
	pending := []*model.Payment{
		{OrderID: "order-1", Method: model.PaymentMethodTON, Amount: 150_000_000},
		{OrderID: "order-2", Method: model.PaymentMethodTON, Amount: 240_000_000},
	}

	t.Run("Matching transfer confirms the payment", func(t *testing.T) {
		server := tonAPIStub(t, `{"ok":true,"result":[
			{"transaction_id":{"hash":"tx-abc"},"in_msg":{"value":"150000000","message":"order-1"}},
			{"transaction_id":{"hash":"tx-def"},"in_msg":{"value":"999","message":"unrelated"}}
		]}`)

		payments := &mocks.MockPaymentService{}
		payments.On("ConfirmByOrderID", mock.Anything, "order-1", "tx-abc").Return(nil)

		w := NewTONWorker(&stubPendingLister{payments: pending},
			ton.NewClient(server.URL, "", "UQwallet"), payments, 0)
		w.checkTransfers(context.Background())

		payments.AssertExpectations(t)
		payments.AssertNotCalled(t, "ConfirmByOrderID", mock.Anything, "order-2", mock.Anything)
	})

	t.Run("Underpaid transfer is ignored", func(t *testing.T) {
		server := tonAPIStub(t, `{"ok":true,"result":[
			{"transaction_id":{"hash":"tx-low"},"in_msg":{"value":"1000","message":"order-1"}}
		]}`)

		payments := &mocks.MockPaymentService{}

		w := NewTONWorker(&stubPendingLister{payments: pending},
			ton.NewClient(server.URL, "", "UQwallet"), payments, 0)
		w.checkTransfers(context.Background())

		payments.AssertNotCalled(t, "ConfirmByOrderID",
			mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No pending payments skips the wallet call", func(t *testing.T) {
		payments := &mocks.MockPaymentService{}

		w := NewTONWorker(&stubPendingLister{},
			ton.NewClient("http://127.0.0.1:1", "", "UQwallet"), payments, 0)
		w.checkTransfers(context.Background())

		payments.AssertNotCalled(t, "ConfirmByOrderID",
			mock.Anything, mock.Anything, mock.Anything)
	})
}

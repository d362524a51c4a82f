package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		SessionID: "s-1",
		Who:       &domain.Identity{ID: 7, Nombre: "Ana", Telefono: "+51900000000"},
		Cart:      domain.Cart{}.Add(paracetamol()).Add(ibuprofeno()).Add(paracetamol()),
	}
}

func TestCheckout_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("payload keeps cart order and duplicates", func(t *testing.T) {
		disp := &mockDispatcher{}
		metrics := newCountingMetrics()
		uc := NewCheckout(disp, metrics)

		disp.On("Dispatch", mock.Anything, mock.MatchedBy(func(p domain.OrderPayload) bool {
			return p.Cliente.ID == 7 && len(p.Items) == 3 &&
				p.Items[0].ID == 1 && p.Items[1].ID == 2 && p.Items[2].ID == 1 &&
				p.Items[0].Cantidad == 1
		})).Return("https://pay/abc?token=1", nil).Once()

		url, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		assert.Equal(t, "https://pay/abc?token=1", url)
		assert.Equal(t, 1, metrics.checkout["success"])
		disp.AssertExpectations(t)
	})

	t.Run("empty cart", func(t *testing.T) {
		disp := &mockDispatcher{}
		uc := NewCheckout(disp, nil)
		in := checkoutInput()
		in.Cart = nil

		_, err := uc.Execute(ctx, in)
		assert.ErrorIs(t, err, ErrEmptyCart)
		disp.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("anonymous", func(t *testing.T) {
		disp := &mockDispatcher{}
		uc := NewCheckout(disp, nil)
		in := checkoutInput()
		in.Who = nil

		_, err := uc.Execute(ctx, in)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("missing redirect is counted apart", func(t *testing.T) {
		disp := &mockDispatcher{}
		metrics := newCountingMetrics()
		uc := NewCheckout(disp, metrics)
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("", ErrMissingRedirect)

		_, err := uc.Execute(ctx, checkoutInput())
		assert.ErrorIs(t, err, ErrMissingRedirect)
		assert.Equal(t, 1, metrics.checkout["no_redirect"])
	})
}

func TestCheckout_DuplicateGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("identical order is rejected while guarded", func(t *testing.T) {
		disp := &mockDispatcher{}
		metrics := newCountingMetrics()
		idem := newMemIdem()
		uc := NewCheckout(disp, metrics, WithDuplicateGuard(idem))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/1", nil).Once()

		_, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		_, err = uc.Execute(ctx, checkoutInput())
		assert.ErrorIs(t, err, ErrDuplicateCheckout)
		assert.Equal(t, 1, metrics.checkout["duplicate"])
		disp.AssertNumberOfCalls(t, "Dispatch", 1)
	})

	t.Run("failed dispatch releases the guard", func(t *testing.T) {
		disp := &mockDispatcher{}
		idem := newMemIdem()
		uc := NewCheckout(disp, nil, WithDuplicateGuard(idem))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("", ErrDispatchFailed).Once()
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/2", nil).Once()

		_, err := uc.Execute(ctx, checkoutInput())
		assert.ErrorIs(t, err, ErrDispatchFailed)
		assert.Empty(t, idem.keys)

		url, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		assert.Equal(t, "https://pay/2", url)
	})

	t.Run("guard outage fails open", func(t *testing.T) {
		disp := &mockDispatcher{}
		idem := newMemIdem()
		idem.err = errors.New("redis down")
		uc := NewCheckout(disp, nil, WithDuplicateGuard(idem))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/3", nil)

		url, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		assert.Equal(t, "https://pay/3", url)
	})

	t.Run("different carts are independent", func(t *testing.T) {
		disp := &mockDispatcher{}
		uc := NewCheckout(disp, nil, WithDuplicateGuard(newMemIdem()))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/4", nil)

		_, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		in := checkoutInput()
		in.Cart = in.Cart.Add(ibuprofeno())
		_, err = uc.Execute(ctx, in)
		require.NoError(t, err)
	})
}

func TestCheckout_Events(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("published after success", func(t *testing.T) {
		disp := &mockDispatcher{}
		events := &recordedEvents{}
		uc := NewCheckout(disp, nil, WithEvents(events))
		uc.now = func() time.Time { return fixed }
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/e", nil)

		_, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		require.Len(t, events.msgs, 1)
		msg := events.msgs[0]
		assert.Equal(t, "s-1", msg.SessionID)
		assert.Equal(t, int64(7), msg.ClienteID)
		assert.Equal(t, "https://pay/e", msg.ApproveURL)
		assert.Equal(t, fixed, msg.DispatchedAt)
		assert.Len(t, msg.Items, 3)
	})

	t.Run("publish failure does not fail checkout", func(t *testing.T) {
		disp := &mockDispatcher{}
		events := &recordedEvents{err: errors.New("channel closed")}
		uc := NewCheckout(disp, nil, WithEvents(events))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("https://pay/e", nil)

		url, err := uc.Execute(ctx, checkoutInput())
		require.NoError(t, err)
		assert.Equal(t, "https://pay/e", url)
	})

	t.Run("nothing published on failure", func(t *testing.T) {
		disp := &mockDispatcher{}
		events := &recordedEvents{}
		uc := NewCheckout(disp, nil, WithEvents(events))
		disp.On("Dispatch", mock.Anything, mock.Anything).Return("", ErrDispatchFailed)

		_, err := uc.Execute(ctx, checkoutInput())
		assert.Error(t, err)
		assert.Empty(t, events.msgs)
	})
}

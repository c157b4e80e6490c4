package mock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
)

func request() *provider.SessionRequest {
	return &provider.SessionRequest{
		LineItems: []provider.LineItem{
			{Name: "Abstract Harmony", UnitAmountCents: 10000, Quantity: 1},
			{Name: "Ceramic Vase", UnitAmountCents: 5000, Quantity: 2},
		},
		Currency:          "usd",
		ClientReferenceID: "cart-1",
		Metadata:          map[string]string{"cart_id": "cart-1"},
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	p := NewProvider("http://localhost:8080/", false)

	sess, err := p.CreateCheckoutSession(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, "cs_mock_"))
	assert.Equal(t, "http://localhost:8080/mock-checkout/"+sess.ID, sess.URL)

	details, err := p.GetCheckoutSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, details.IsPaid())
	assert.Equal(t, int64(20000), details.AmountTotalCents)
	assert.Equal(t, "cart-1", details.ClientReferenceID)
}

func TestAutoConfirm(t *testing.T) {
	p := NewProvider("http://localhost:8080", true)

	sess, err := p.CreateCheckoutSession(context.Background(), request())
	require.NoError(t, err)

	details, err := p.GetCheckoutSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, details.IsPaid())
}

func TestMarkPaid(t *testing.T) {
	p := NewProvider("http://localhost:8080", false)
	sess, err := p.CreateCheckoutSession(context.Background(), request())
	require.NoError(t, err)

	require.NoError(t, p.MarkPaid(sess.ID))
	details, err := p.GetCheckoutSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, provider.PaymentStatusPaid, details.PaymentStatus)

	assert.True(t, errors.Is(p.MarkPaid("cs_unknown"), apperrors.ErrNotFound))
}

func TestGetCheckoutSession_Unknown(t *testing.T) {
	p := NewProvider("http://localhost:8080", false)

	_, err := p.GetCheckoutSession(context.Background(), "cs_unknown")
	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 404, pe.StatusCode)
}

func TestReturnURL(t *testing.T) {
	p := NewProvider("http://localhost:8080", true)
	req := request()
	req.SuccessURL = "https://shop.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	req.CancelURL = "https://shop.example.com/cart"

	sess, err := p.CreateCheckoutSession(context.Background(), req)
	require.NoError(t, err)

	success, err := p.ReturnURL(sess.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/checkout/success?session_id="+sess.ID, success)

	cancel, err := p.ReturnURL(sess.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/cart", cancel)

	_, err = p.ReturnURL("cs_unknown", false)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

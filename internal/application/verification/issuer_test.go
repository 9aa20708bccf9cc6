package verification

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/onepage-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func TestGenerateCode_Range(t *testing.T) {
	iss := NewIssuer(nil, 10*time.Minute)
	for i := 0; i < 1000; i++ {
		code := iss.GenerateCode()
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestDeliver_Body(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, "a@b.com", "Verify Your Email",
		"Your OnePage verification code is: 123456. It expires in 10 minutes.").Return(nil)

	err := NewIssuer(m, 10*time.Minute).Deliver(context.Background(), "a@b.com", "123456")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestDeliver_FailureIsDeliveryError(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("401 Unauthorized"))

	err := NewIssuer(m, 10*time.Minute).Deliver(context.Background(), "a@b.com", "123456")
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Equal(t, "Failed to send verification email", domain.PublicMessage(err))
}

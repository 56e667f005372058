package fetch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/request"
)

func TestParseProxy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10.0.0.1:8080", want: "http://10.0.0.1:8080"},
		{in: " http://user:pw@10.0.0.1:3128 ", want: "http://user:pw@10.0.0.1:3128"},
		{in: "socks5://10.0.0.1:1080", want: "socks5://10.0.0.1:1080"},
		{in: "https://proxy.example.com", want: "https://proxy.example.com"},
		{in: "", wantErr: true},
		{in: "ftp://10.0.0.1:21", wantErr: true},
		{in: "http://", wantErr: true},
		{in: "http://[::1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseProxy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestNewPool(t *testing.T) {
	p, err := NewPool()
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
	assert.Nil(t, p.Endpoints()[0])

	p, err = NewPool("10.0.0.1:8080", "10.0.0.2:8080")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	_, err = NewPool("10.0.0.1:8080", "gopher://x")
	assert.Error(t, err)

	var zero Pool
	assert.Equal(t, 1, zero.Len())
	assert.Equal(t, 1, PoolOf().Len())
}

func TestPool_EndpointsIsCopy(t *testing.T) {
	p, err := NewPool("10.0.0.1:8080")
	require.NoError(t, err)
	eps := p.Endpoints()
	eps[0] = nil
	assert.NotNil(t, p.Endpoints()[0])
}

func TestRetryPolicy(t *testing.T) {
	assert.NoError(t, RetryPolicy{}.Validate())
	assert.NoError(t, RetryPolicy{MaxAttempts: 3, Delay: time.Second, Timeout: 5 * time.Second}.Validate())

	assert.Equal(t, 4, RetryPolicy{}.attempts(4))
	assert.Equal(t, 7, RetryPolicy{MaxAttempts: 7}.attempts(4))
	assert.Equal(t, request.DefaultTimeout, RetryPolicy{}.timeout())
	assert.Equal(t, time.Second, RetryPolicy{Timeout: time.Second}.timeout())
}

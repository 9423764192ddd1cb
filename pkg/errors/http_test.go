package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error defaults to 500",
			err:  nil,
			want: StatusInternalServerError,
		},
		{
			name: "plain error defaults to 500",
			err:  fmt.Errorf("connection reset"),
			want: StatusInternalServerError,
		},
		{
			name: "invalid request maps to 400",
			err:  NewInvalidRequestError("bad payload", nil),
			want: StatusBadRequest,
		},
		{
			name: "notification failure maps to 502",
			err:  NewNotificationFailedError("webhook returned 500 Internal Server Error", nil),
			want: StatusBadGateway,
		},
		{
			name: "wrapped app error keeps its mapping",
			err:  fmt.Errorf("submit: %w", NewNotificationFailedError("webhook unreachable", nil)),
			want: StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

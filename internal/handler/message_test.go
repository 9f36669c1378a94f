package handler

import (
	"errors"
	"net/http"
	"testing"
	"tush00nka/coachly_messaging/internal/service"
)

func TestStatusForMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrEmptyMessage, http.StatusBadRequest},
		{service.ErrAttachmentNotFound, http.StatusBadRequest},
		{service.ErrNotRecipient, http.StatusForbidden},
		{service.ErrNotSender, http.StatusForbidden},
		{service.ErrNotParticipant, http.StatusForbidden},
		{service.ErrMessageNotFound, http.StatusNotFound},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

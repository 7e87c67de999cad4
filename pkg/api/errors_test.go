package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"policy error", errs.NewPolicyError("field", "bad"), http.StatusBadRequest},
		{"kb invalid input", errs.NewKbInvalidInput("title", "empty"), http.StatusBadRequest},
		{"turn in progress", errs.ErrTurnInProgress, http.StatusConflict},
		{"kb not found", errs.ErrKbNotFound, http.StatusNotFound},
		{"team extraction failed", errs.ErrTeamExtractionFailed, http.StatusUnprocessableEntity},
		{"tool loop exhausted", errs.ErrToolLoopExhausted, http.StatusBadGateway},
		{"unmapped", errs.ErrFatalBug, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, statusForError(tc.err))
		})
	}
}

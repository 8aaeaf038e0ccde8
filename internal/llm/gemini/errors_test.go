package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func TestClassifyGeminiError_CodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{"unauthorized", &googleapi.Error{Code: 401}, apperrors.KindAuth},
		{"forbidden", &googleapi.Error{Code: 403}, apperrors.KindAuth},
		{"bad request", &googleapi.Error{Code: 400}, apperrors.KindBadRequest},
		{"not found", &googleapi.Error{Code: 404}, apperrors.KindBadRequest},
		{"rate limit", &googleapi.Error{Code: 429}, apperrors.KindRateLimit},
		{"unavailable", &googleapi.Error{Code: 503}, apperrors.KindTransient},
		{"other 4xx", &googleapi.Error{Code: 409}, apperrors.KindBadRequest},
		{"deadline", context.DeadlineExceeded, apperrors.KindTransient},
		{"unknown", errors.New("boom"), apperrors.KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorKind(t, classifyGeminiError(tt.err), tt.kind)
		})
	}
}

func TestClassifyGeminiError_DoesNotExposeRawMessage(t *testing.T) {
	err := classifyGeminiError(errors.New("SECRET_PATENT_CLAIM"))
	if strings.Contains(err.Error(), "SECRET_PATENT_CLAIM") {
		t.Fatalf("expected safe message, got %q", err.Error())
	}
}

func TestClassifyGeminiError_Nil(t *testing.T) {
	if err := classifyGeminiError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func assertErrorKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperrors.Error, got %T", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s", kind, appErr.Kind)
	}
}

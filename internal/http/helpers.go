package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	rhmoney "github.com/Rhymond/go-money"

	"nummus/internal/core"
)

// errorToResponse maps domain errors onto HTMX error responses:
// validation failures are 422, locked or linked records are 403, missing
// records are 404, and anything else is a 500 with a generic message.
func errorToResponse(err error) *HTMXResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(verr.Error())
	case errors.Is(err, core.ErrForbidden):
		return ForbiddenError("This record is locked and cannot be changed")
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("Record not found")
	default:
		return InternalServerError("Something went wrong")
	}
}

// formatDollars renders cents as a display string, e.g. "-$1,234.56".
func formatDollars(cents int64) string {
	return rhmoney.New(cents, rhmoney.USD).Display()
}

// parseID parses a positive integer id form value.
func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

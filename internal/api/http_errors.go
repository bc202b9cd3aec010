package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

var categoryStatus = map[core.ErrorCategory]int{
	core.ErrCatFormat:     http.StatusBadRequest,
	core.ErrCatValidation: http.StatusUnprocessableEntity,
	core.ErrCatNotFound:   http.StatusNotFound,
	core.ErrCatState:      http.StatusConflict,
	core.ErrCatAuth:       http.StatusUnauthorized,
	core.ErrCatExternal:   http.StatusBadGateway,
	core.ErrCatExtraction: http.StatusBadGateway,
}

// httpStatusForDomainError reports the status for err; ok is false when
// err carries no DomainError.
func httpStatusForDomainError(err error) (status int, ok bool) {
	var de *core.DomainError
	if !errors.As(err, &de) || de == nil {
		return 0, false
	}
	if s, found := categoryStatus[de.Category]; found {
		return s, true
	}
	return http.StatusInternalServerError, true
}

// respondDomainError maps err to a status and writes its user message.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	respondError(w, status, core.UserMessage(err))
}

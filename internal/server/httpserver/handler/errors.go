package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

// WriteError writes err as a JSON rejection and returns the error code.
// Errors that are not domain errors become VB-SYS-5000.
func WriteError(w http.ResponseWriter, err error) string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternalServer
	}

	body := ErrorResponse{
		Error:   de.Message,
		Code:    de.Code,
		Details: de.Details,
	}

	var drift *domain.DriftError
	if errors.As(err, &drift) {
		engine, received := drift.Engine, drift.Received
		body.Engine = &engine
		body.Received = &received
	}

	status := StatusForCode(de.Code)
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set("X-Error-Code", de.Code)
	writeJSON(w, status, body)
	return de.Code
}

// StatusForCode derives the HTTP status from the numeric suffix of an
// error code: VB-AUTH-4031 -> 403. Unknown shapes map to 500.
func StatusForCode(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 < 3 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(code[i+1 : i+4])
	if err != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

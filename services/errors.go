package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// ERROR TAXONOMY
// Chaque échec du pipeline est reclassé en un ErrorKind avant de franchir
// la frontière du service. Aucune erreur brute de librairie ne sort d'ici.
// ============================================================================

type ErrorKind string

const (
	ErrKindUnauthorized        ErrorKind = "unauthorized"
	ErrKindForbidden           ErrorKind = "forbidden"
	ErrKindInvalidInput        ErrorKind = "invalid_input"
	ErrKindTimeout             ErrorKind = "timeout"
	ErrKindTooManyRedirects    ErrorKind = "too_many_redirects"
	ErrKindRemoteHTTP          ErrorKind = "remote_http_error"
	ErrKindDNSOrConnect        ErrorKind = "dns_or_connect_failure"
	ErrKindInsufficientContent ErrorKind = "insufficient_content"
	ErrKindMalformedOutput     ErrorKind = "malformed_generation_output"
	ErrKindEmptyProposal       ErrorKind = "empty_proposal"
	ErrKindGeneration          ErrorKind = "generation_failed"
	ErrKindInternal            ErrorKind = "internal"
)

// PipelineError porte un kind stable, un message destiné à l'utilisateur
// et la cause interne (loggée mais jamais exposée).
type PipelineError struct {
	Kind         ErrorKind
	Message      string
	RemoteStatus int // only set for ErrKindRemoteHTTP
	Err          error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError builds an error of the given kind with its canonical
// user-facing message.
func NewPipelineError(kind ErrorKind, cause error) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: userMessage(kind, 0),
		Err:     cause,
	}
}

// NewRemoteHTTPError folds the upstream status into the user message without
// exposing anything else about the response.
func NewRemoteHTTPError(status int, cause error) *PipelineError {
	return &PipelineError{
		Kind:         ErrKindRemoteHTTP,
		Message:      userMessage(ErrKindRemoteHTTP, status),
		RemoteStatus: status,
		Err:          cause,
	}
}

// AsPipelineError extracts a PipelineError from err, or wraps err as an
// internal failure so nothing escapes unclassified.
func AsPipelineError(err error) *PipelineError {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr
	}
	return NewPipelineError(ErrKindInternal, err)
}

// HTTPStatus maps the error kind to a caller-facing status code.
func (e *PipelineError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindUnauthorized:
		return http.StatusUnauthorized
	case ErrKindForbidden:
		return http.StatusForbidden
	case ErrKindInvalidInput:
		return http.StatusBadRequest
	case ErrKindTimeout:
		return http.StatusRequestTimeout
	case ErrKindTooManyRedirects, ErrKindRemoteHTTP, ErrKindDNSOrConnect, ErrKindInsufficientContent:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(kind ErrorKind, remoteStatus int) string {
	switch kind {
	case ErrKindUnauthorized:
		return "Authentication required"
	case ErrKindForbidden:
		return "Website analysis is not included in your current plan"
	case ErrKindInvalidInput:
		return "That doesn't look like a valid website address"
	case ErrKindTimeout:
		return "The website took too long to respond. Please try again later."
	case ErrKindTooManyRedirects:
		return "We couldn't reach that website (too many redirects)"
	case ErrKindRemoteHTTP:
		return fmt.Sprintf("The website returned an error (HTTP %d)", remoteStatus)
	case ErrKindDNSOrConnect:
		return "We couldn't find or reach that website. Please check the address."
	case ErrKindInsufficientContent:
		return "We couldn't read enough content from that page. Try a different page of the website."
	case ErrKindMalformedOutput, ErrKindEmptyProposal, ErrKindGeneration:
		return "Failed to analyze the website. Please try again."
	default:
		return "Something went wrong on our side. Please try again."
	}
}

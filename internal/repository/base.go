// Package repository provides the typed clients for the blog backend's
// posts, auth and user administration resources.
package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RaduPandor/Blog-Web-App/internal/apiclient"
	"github.com/RaduPandor/Blog-Web-App/internal/models"
)

// API is the transport the repositories send requests through.
// *apiclient.Client implements it.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

type outcome int

const (
	asFetch outcome = iota
	asValidation
	asForbidden
	asNotFound
	asUnauthenticated
)

// statusMap says which taxonomy kind a status code becomes for one operation.
// Codes not listed become FETCH_ERROR.
type statusMap map[int]outcome

var (
	readStatuses = statusMap{
		http.StatusNotFound: asNotFound,
	}
	createStatuses = statusMap{
		http.StatusBadRequest:          asValidation,
		http.StatusUnprocessableEntity: asValidation,
		http.StatusUnauthorized:        asForbidden,
		http.StatusForbidden:           asForbidden,
	}
	writeStatuses = statusMap{
		http.StatusUnauthorized: asForbidden,
		http.StatusForbidden:    asForbidden,
		http.StatusNotFound:     asNotFound,
	}
	adminStatuses = statusMap{
		http.StatusBadRequest:          asValidation,
		http.StatusConflict:            asValidation,
		http.StatusUnprocessableEntity: asValidation,
		http.StatusUnauthorized:        asForbidden,
		http.StatusForbidden:           asForbidden,
		http.StatusNotFound:            asNotFound,
	}
)

// target names the resource an operation touches, for error messages.
type target struct {
	resource string
	id       any
	fallback string
}

// translate turns a transport StatusError into the client error taxonomy.
// Network failures and context errors pass through unchanged.
func translate(err error, statuses statusMap, t target) error {
	if err == nil {
		return nil
	}
	statusErr, ok := apiclient.AsStatus(err)
	if !ok {
		return err
	}

	message := statusErr.Message
	if !statusErr.ServerMessage && t.fallback != "" {
		message = fmt.Sprintf("%s: %d %s", t.fallback, statusErr.StatusCode, statusErr.Message)
	}

	switch statuses[statusErr.StatusCode] {
	case asValidation:
		return &models.AppError{Code: models.CodeValidation, Status: statusErr.StatusCode, Message: message, Err: statusErr}
	case asForbidden:
		return &models.AppError{Code: models.CodeForbidden, Status: statusErr.StatusCode, Message: message, Err: statusErr}
	case asUnauthenticated:
		return &models.AppError{Code: models.CodeUnauthenticated, Status: statusErr.StatusCode, Message: message, Err: statusErr}
	case asNotFound:
		notFound := models.NewNotFoundError(t.resource, t.id)
		if statusErr.ServerMessage {
			notFound.Message = statusErr.Message
		}
		notFound.Err = statusErr
		return notFound
	default:
		fetchErr := models.NewFetchError(statusErr.StatusCode, message)
		fetchErr.Err = statusErr
		return fetchErr
	}
}

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/games"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/players"
	"github.com/mcdev12/leaguesync/go/internal/session"
	"github.com/mcdev12/leaguesync/go/internal/teams"
	"github.com/mcdev12/leaguesync/go/internal/users"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type jsonResponse map[string]any

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write error response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapErrorToHTTP turns façade and store errors into responses. Anything
// unrecognized is a failure of the document store behind the write.
func mapErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrMissingIdentifier),
		errors.Is(err, models.ErrValidation):
		badRequestResponse(w, r, err)

	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, players.ErrPlayerNotFound),
		errors.Is(err, teams.ErrTeamNotFound),
		errors.Is(err, games.ErrGameNotFound),
		errors.Is(err, users.ErrUserNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, users.ErrEmailTaken):
		errorResponse(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, session.ErrInvalidToken):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, session.ErrNoSession):
		errorResponse(w, r, http.StatusConflict, err.Error())

	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("store request failed")
		errorResponse(w, r, http.StatusBadGateway, "the document store could not process the request")
	}
}

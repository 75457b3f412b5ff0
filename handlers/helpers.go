package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MarioKartCentral/registry/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

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
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: в dst передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
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

func urlParamID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func throttledResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusTooManyRequests, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrRosterNotFound),
		errors.Is(err, services.ErrTransferNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrSquadNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrUserNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrRosterNameConflict),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrAlreadyInvited),
		errors.Is(err, services.ErrSquadFull),
		errors.Is(err, services.ErrRosterAlreadyLinked),
		errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrFriendCodeConflict):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrRegistrationsClosed),
		errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrPlayerBanned),
		errors.Is(err, services.ErrMiiNameRequired),
		errors.Is(err, services.ErrFCSelectionRequired),
		errors.Is(err, services.ErrSquadTagNotInMiiName),
		errors.Is(err, services.ErrSquadNameRequired),
		errors.Is(err, services.ErrSquadTagRequired),
		errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrTeamsOnly),
		errors.Is(err, services.ErrSquadRequired),
		errors.Is(err, services.ErrSoloOnly),
		errors.Is(err, services.ErrBaggerNotEnabled),
		errors.Is(err, services.ErrNotYetAccepted),
		errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrTransferResolved),
		errors.Is(err, services.ErrNotAMember),
		errors.Is(err, services.ErrNotApprovedYet),
		errors.Is(err, services.ErrCaptainMustTransferFirst),
		errors.Is(err, services.ErrInviteNotPending),
		errors.Is(err, services.ErrForbiddenOperation):
		errorResponse(w, r, http.StatusBadRequest, err.Error())

	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrNotCaptain),
		errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrThrottled):
		throttledResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

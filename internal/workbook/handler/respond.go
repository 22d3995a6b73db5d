package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"troskovnik-service/internal/middleware"
	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

type errorBody struct {
	Error    string           `json:"error"`
	Field    string           `json:"field,omitempty"`
	Value    string           `json:"value,omitempty"`
	Line     int              `json:"line,omitempty"`
	Existing *model.ResultKey `json:"existing,omitempty"`
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

// writeError maps domain errors to statuses; the message always names the rejected value.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		inv  *service.InvalidInputError
		conf *service.ConflictError
		mbe  *http.MaxBytesError
	)
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &inv):
		status, body.Field, body.Value = http.StatusBadRequest, inv.Field, inv.Value
	case errors.As(err, &conf):
		status, body.Line = http.StatusConflict, conf.Line
		body.Existing = &conf.Existing
	case errors.As(err, &mbe):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrDuplicateResult):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPendingLine):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrArticleNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		status = http.StatusNotFound
	}
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, log, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return &service.InvalidInputError{Field: "body", Value: "", Reason: err.Error()}
	}
	return nil
}

// reqLogger binds the request id, as set by middleware.RequestID.
func reqLogger(base zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := middleware.GetRequestID(r); rid != "" {
		return base.With().Str("rid", rid).Logger()
	}
	return base
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on", "da":
		return true
	case "0", "false", "no", "n", "off", "ne":
		return false
	default:
		return def
	}
}

// parseKey reads {id}/{line} path values; line may be a number or PENDING.
func parseKey(idText, lineText string) (model.ResultKey, error) {
	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil || id == 0 {
		return model.ResultKey{}, &service.InvalidInputError{Field: "id", Value: idText, Reason: "not an article id"}
	}
	line, err := model.ParseLineNumber(lineText)
	if err != nil {
		return model.ResultKey{}, &service.InvalidInputError{Field: "line", Value: lineText, Reason: "want a positive number or PENDING"}
	}
	return model.ResultKey{ID: id, Line: line}, nil
}

func parseLine(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, &service.InvalidInputError{Field: "line", Value: text, Reason: "must be a positive integer"}
	}
	return n, nil
}

// parsePrice returns nil for an empty field.
func parsePrice(field, text string) (*decimal.Decimal, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	d, ok := utils.ParseDecimalHR(text)
	if !ok {
		return nil, &service.InvalidInputError{Field: field, Value: text, Reason: "not a number"}
	}
	return &d, nil
}

func parsePriceType(text string) (model.PriceType, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "piece", "kom":
		return model.PricePiece, nil
	case "kg":
		return model.PriceKg, nil
	}
	return "", &service.InvalidInputError{Field: "priceType", Value: text, Reason: fmt.Sprintf("want %q or %q", model.PricePiece, model.PriceKg)}
}

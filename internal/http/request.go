package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst with a size cap.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.NewValidation("request body is required")
		}
		return core.NewValidation("invalid JSON request body")
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationf("invalid id '%s'", raw)
	}
	return id, nil
}

// parseTransactionFilter reads the list query parameters: type,
// start_date, end_date and limit.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		f.Type = core.CategoryType(raw)
	}

	from, to, err := parseDateRange(q)
	if err != nil {
		return core.TransactionFilter{}, err
	}
	f.From, f.To = from, to

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return core.TransactionFilter{}, core.NewValidationf("invalid limit '%s'", raw)
		}
		f.Limit = limit
	}

	return f, nil
}

// parseDateRange reads the optional start_date/end_date pair.
func parseDateRange(q url.Values) (core.Date, core.Date, error) {
	var from, to core.Date

	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
		from = d
	}
	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
		to = d
	}

	return from, to, nil
}

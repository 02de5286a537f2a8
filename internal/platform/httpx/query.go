package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// DateLayout is the layout of date query parameters.
const DateLayout = "2006-01-02"

// DateRange reads the inclusive from/to date query parameters. A missing
// bound is returned as the zero time; to covers the whole of its day.
func DateRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	verr := &shared.ValidationError{}
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(DateLayout, v); err != nil {
			verr.Add("from", "from must be a date (YYYY-MM-DD).")
		}
	}
	if v := q.Get("to"); v != "" {
		var day time.Time
		if day, err = time.Parse(DateLayout, v); err != nil {
			verr.Add("to", "to must be a date (YYYY-MM-DD).")
		} else {
			to = day.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if err := verr.OrNil(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// MaxPerPage caps the perPage query parameter.
const MaxPerPage = 500

// PageParams reads the page and perPage query parameters. ok is false when
// neither is present and the caller should return the full listing.
func PageParams(r *http.Request) (page, perPage int, ok bool, err error) {
	q := r.URL.Query()
	rawPage, rawPer := q.Get("page"), q.Get("perPage")
	if rawPage == "" && rawPer == "" {
		return 0, 0, false, nil
	}
	verr := &shared.ValidationError{}
	if rawPage != "" {
		if page, err = strconv.Atoi(rawPage); err != nil || page < 1 {
			verr.Add("page", "page must be a positive number.")
		}
	}
	if rawPer != "" {
		if perPage, err = strconv.Atoi(rawPer); err != nil || perPage < 1 || perPage > MaxPerPage {
			verr.Add("perPage", "perPage must be between 1 and "+strconv.Itoa(MaxPerPage)+".")
		}
	}
	if err := verr.OrNil(); err != nil {
		return 0, 0, false, err
	}
	return page, perPage, true, nil
}

// SetPagination exposes listing metadata as response headers.
func SetPagination(w http.ResponseWriter, p shared.Pagination) {
	h := w.Header()
	h.Set("X-Page", strconv.Itoa(p.Page))
	h.Set("X-Per-Page", strconv.Itoa(p.PerPage))
	h.Set("X-Total-Count", strconv.Itoa(p.Total))
	h.Set("X-Total-Pages", strconv.Itoa(p.TotalPages))
}

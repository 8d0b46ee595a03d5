package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"labsched/errcode"
	"labsched/response"
	"labsched/shifts"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.FailWithMessage(w, errcode.ErrBind, "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || id == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 32)
	if err != nil || id == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, name+" is required", nil)
		return 0, false
	}
	return uint(id), true
}

// queryDate reads ?date=YYYY-MM-DD, defaulting to today in UTC.
func queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return shifts.Date(time.Now()), true
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		response.FailWithMessage(w, errcode.ErrValidation, "date must be YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return d, true
}

// reply writes an accepted outcome as 200 (or 201 when created is set) and a
// rejected one with the status registered for its code. data is included
// either way so callers can see capacity figures on a rejection.
func reply(w http.ResponseWriter, out errcode.Outcome, data interface{}, created bool) {
	if !out.OK {
		response.FailWithMessage(w, out.Code, out.Message, data)
		return
	}
	if created {
		response.Created(w, data)
		return
	}
	response.Success(w, data)
}

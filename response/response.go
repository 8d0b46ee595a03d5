// Package response writes the JSON envelope every API route answers with.
package response

import (
	"encoding/json"
	"log"
	"net/http"

	"labsched/errcode"
)

// Response is the unified envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, Response{
		Code:    errcode.ErrSuccess,
		Message: errcode.GetMessage(errcode.ErrSuccess),
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, Response{
		Code:    errcode.ErrSuccess,
		Message: errcode.GetMessage(errcode.ErrSuccess),
		Data:    data,
	})
}

// Fail writes the status and default message registered for errorCode.
func Fail(w http.ResponseWriter, errorCode int, data interface{}) {
	FailWithMessage(w, errorCode, errcode.GetMessage(errorCode), data)
}

// FailWithMessage writes the status registered for errorCode with a custom message.
func FailWithMessage(w http.ResponseWriter, errorCode int, message string, data interface{}) {
	if message == "" {
		message = errcode.GetMessage(errorCode)
	}
	write(w, errcode.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: message,
		Data:    data,
	})
}

// ServerError logs err and answers with a generic 500; the raw error never
// reaches the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	Fail(w, errcode.ErrUnknown, nil)
}

func write(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

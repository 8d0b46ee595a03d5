package handlers

import (
	"net/http"

	"labsched/database"
	"labsched/errcode"
	"labsched/response"
)

func Health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := database.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		response.FailWithMessage(w, errcode.ErrDatabase, "database unreachable", nil)
		return
	}
	response.Success(w, map[string]string{"status": "ok"})
}

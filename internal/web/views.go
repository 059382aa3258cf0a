package web

//go:generate templ generate

import (
	"strconv"

	"github.com/JonMunkholm/UserUpload/internal/database"
)

type pageData struct {
	Users []database.User
	Total int64
	Pool  database.PoolStatus
}

// ageText renders a nullable age; rows stored without one show an empty cell.
func ageText(age *int32) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(int(*age))
}

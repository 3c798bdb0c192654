package response

import "time"

const (
	MessageSuccess      = "Success"
	DefaultErrorMessage = "Something went wrong"

	ErrorCodeBadRequest     = 1
	InternalServerErrorCode = 500

	DateTimeFormat = time.RFC3339
)

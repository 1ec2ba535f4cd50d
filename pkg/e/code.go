package e

const (
	SUCCESS        = 0
	ERROR          = 1
	INVALID_PARAMS = 2

	ERROR_AUTH               = 10001
	ERROR_AUTH_TOKEN_INVALID = 10002
	ERROR_FORBIDDEN          = 10003

	ERROR_NOT_FOUND     = 20001
	ERROR_CONFLICT      = 20002
	ERROR_INVALID_STATE = 20003

	ERROR_STOCK_NOT_ENOUGH  = 30001
	ERROR_POINTS_NOT_ENOUGH = 30002
	ERROR_PAYMENT_FAILED    = 30003

	ERROR_LOCK_NOT_ACQUIRED = 40001
	ERROR_TOO_MANY_REQUESTS = 40002

	ERROR_UPSTREAM = 50001
)

var MsgFlags = map[int]string{
	SUCCESS:        "ok",
	ERROR:          "internal error",
	INVALID_PARAMS: "invalid request parameters",

	ERROR_AUTH:               "authentication failed",
	ERROR_AUTH_TOKEN_INVALID: "invalid or expired token",
	ERROR_FORBIDDEN:          "access denied",

	ERROR_NOT_FOUND:     "resource not found",
	ERROR_CONFLICT:      "resource already exists",
	ERROR_INVALID_STATE: "operation not allowed in current state",

	ERROR_STOCK_NOT_ENOUGH:  "not enough stock",
	ERROR_POINTS_NOT_ENOUGH: "not enough points",
	ERROR_PAYMENT_FAILED:    "payment failed",

	ERROR_LOCK_NOT_ACQUIRED: "resource is busy, try again",
	ERROR_TOO_MANY_REQUESTS: "too many requests",

	ERROR_UPSTREAM: "upstream service unavailable",
}

func GetMsg(code int) string {
	msg, ok := MsgFlags[code]
	if ok {
		return msg
	}
	return MsgFlags[ERROR]
}

type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewBody(code int, message string) Body {
	if message == "" {
		message = GetMsg(code)
	}
	return Body{Code: code, Message: message}
}

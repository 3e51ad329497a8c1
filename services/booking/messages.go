package booking

import (
	"errors"
	"net/http"

	"halaqat/services/fetcher"
)

// Student-facing messages used when the backend does not supply one.
const (
	MsgBooked         = "تم الحجز بنجاح"
	MsgCancelled      = "تم إلغاء الحجز بنجاح"
	MsgBookFailed     = "حدث خطأ أثناء الحجز"
	MsgCancelFailed   = "حدث خطأ أثناء إلغاء الحجز"
	MsgSessionExpired = "انتهت صلاحية الجلسة، يرجى تحديث الصفحة والمحاولة مرة أخرى"
	MsgNetwork        = "تعذر الاتصال بالخادم، يرجى المحاولة لاحقاً"
	MsgServer         = "حدث خطأ في الخادم، يرجى المحاولة لاحقاً"
)

// failureMessage picks what the student sees for a failed request: the first
// field error, then the server message, then a generic text for the status.
func failureMessage(err error, fallback string) string {
	var reqErr *fetcher.RequestError
	if !errors.As(err, &reqErr) {
		return fallback
	}
	if msg := reqErr.FirstFieldError(); msg != "" {
		return msg
	}
	if reqErr.Message != "" {
		return reqErr.Message
	}
	switch {
	case reqErr.Status == 0:
		return MsgNetwork
	case reqErr.TokenRejected():
		return MsgSessionExpired
	case reqErr.Status >= http.StatusInternalServerError:
		return MsgServer
	default:
		return fallback
	}
}

func tokenRejected(err error) bool {
	var reqErr *fetcher.RequestError
	return errors.As(err, &reqErr) && reqErr.TokenRejected()
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

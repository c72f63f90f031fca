package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Error kinds. Handlers map them to HTTP statuses; callers compare with errors.Is.
const (
	KindValidation = "ValidationError"
	KindNotFound   = "NotFoundError"
	KindAuth       = "AuthError"
	KindConflict   = "ConflictError"
	KindUpstream   = "UpstreamError"
	KindInternal   = "InternalError"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Reason  string `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Reason when the target names one, otherwise on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" {
		return t.Reason == e.Reason
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e with err attached as the cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates a new Error
func New(code int, kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func reason(code int, kind, r, message string) *Error {
	e := New(code, kind, message, nil)
	e.Reason = r
	return e
}

func Validation(message string) *Error { return New(http.StatusBadRequest, KindValidation, message, nil) }
func NotFound(message string) *Error   { return New(http.StatusNotFound, KindNotFound, message, nil) }
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, KindAuth, message, nil)
}
func Forbidden(message string) *Error { return New(http.StatusForbidden, KindAuth, message, nil) }
func Conflict(message string) *Error  { return New(http.StatusConflict, KindConflict, message, nil) }
func Upstream(message string, err error) *Error {
	return New(http.StatusBadGateway, KindUpstream, message, err)
}
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// Domain errors
var (
	ErrEmptyOrder           = reason(http.StatusBadRequest, KindValidation, "EmptyOrder", "No order items")
	ErrProductNotFound      = reason(http.StatusNotFound, KindNotFound, "ProductNotFound", "Product not found")
	ErrInsufficientStock    = reason(http.StatusBadRequest, KindConflict, "InsufficientStock", "Insufficient stock")
	ErrOrderNotFound        = reason(http.StatusNotFound, KindNotFound, "OrderNotFound", "Order not found")
	ErrTotalsMismatch       = reason(http.StatusBadRequest, KindValidation, "TotalsMismatch", "Order totals do not match current prices")
	ErrInvalidTransition    = reason(http.StatusBadRequest, KindValidation, "InvalidTransition", "Invalid order status transition")
	ErrIdempotencyInFlight  = reason(http.StatusConflict, KindConflict, "IdempotencyInFlight", "A request with this idempotency key is already in progress")
	ErrCouponNotFound       = reason(http.StatusNotFound, KindNotFound, "CouponNotFound", "Invalid coupon code")
	ErrCouponInactive       = reason(http.StatusBadRequest, KindValidation, "CouponInactive", "Coupon is no longer active")
	ErrCouponExpired        = reason(http.StatusBadRequest, KindValidation, "CouponExpired", "Coupon has expired")
	ErrMinOrderNotMet       = reason(http.StatusBadRequest, KindValidation, "MinOrderNotMet", "Minimum order amount not met")
	ErrCouponUsageExhausted = reason(http.StatusBadRequest, KindConflict, "CouponUsageExhausted", "Coupon usage limit reached")
	ErrCouponExists         = reason(http.StatusConflict, KindConflict, "CouponExists", "Coupon code already exists")
	ErrInvalidAmount        = reason(http.StatusBadRequest, KindValidation, "InvalidAmount", "Invalid amount")
	ErrPaymentIntentMissing = reason(http.StatusBadRequest, KindValidation, "PaymentIntentMissing", "Payment Intent ID is required")
	ErrPaymentNotCompleted  = reason(http.StatusBadRequest, KindValidation, "PaymentNotCompleted", "Payment not successful")
	ErrPaymentAmountChanged = reason(http.StatusBadRequest, KindValidation, "PaymentAmountMismatch", "Payment amount does not match order total")
	ErrPaymentIntentUsed    = reason(http.StatusConflict, KindConflict, "PaymentIntentUsed", "Payment has already been used for another order")
	ErrAlreadyReviewed      = reason(http.StatusBadRequest, KindConflict, "AlreadyReviewed", "You have already reviewed this product")
	ErrCartItemNotFound     = reason(http.StatusNotFound, KindNotFound, "CartItemNotFound", "Item not in cart")
	ErrUserNotFound         = reason(http.StatusNotFound, KindNotFound, "UserNotFound", "User not found")
	ErrCannotBlockAdmin     = reason(http.StatusForbidden, KindAuth, "CannotBlockAdmin", "Cannot block admin")
	ErrAccountBlocked       = reason(http.StatusForbidden, KindAuth, "AccountBlocked", "Your account has been blocked")
)

// Respond writes err as {success:false,message}. Errors that are not *Error
// become a 500 whose cause is only exposed when APP_ENV is development.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		appErr = Internal("Internal server error", err)
	}

	body := gin.H{"success": false, "message": appErr.Message}
	if appErr.Code >= http.StatusInternalServerError && appErr.Err != nil && os.Getenv("APP_ENV") == "development" {
		body["error"] = appErr.Err.Error()
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
		}
	}
}

// Recovery turns panics into a 500 in the same response shape.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		Respond(c, Internal("Internal server error", fmt.Errorf("panic: %v", recovered)))
	})
}

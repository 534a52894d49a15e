package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"sales-ims/internal/accounts"
	"sales-ims/internal/auth"
	"sales-ims/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var fieldNamesOnce sync.Once

// UseJSONFieldNames makes binding errors name fields the way clients send
// them (json tag, else form tag) instead of by Go field name.
func UseJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(key), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return ""
		})
	})
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

var validationErrors = []error{
	accounts.ErrInvalidEmail,
	accounts.ErrInvalidPassword,
	auth.ErrPasswordTooLong,
	sales.ErrInvalidName,
	sales.ErrInvalidEmail,
	sales.ErrInvalidSKU,
	sales.ErrInvalidPrice,
	sales.ErrInvalidQuantity,
	sales.ErrTotalTooLarge,
}

func mapError(err error) (int, string) {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, v.Error()
		}
	}

	switch {
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, sales.ErrDuplicateCustomer):
		return http.StatusBadRequest, "Customer already exists"
	case errors.Is(err, sales.ErrDuplicateSKU):
		return http.StatusBadRequest, "Product already exists"
	case errors.Is(err, sales.ErrReferenceNotFound):
		return http.StatusNotFound, "Product or customer not found"
	case errors.Is(err, sales.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// abortWithError writes the mapped status and detail. Unexpected errors are
// attached to the context so the request logger records them.
func abortWithError(c *gin.Context, err error) {
	status, detail := mapError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

// abortWithBindError reports a request body or query that failed binding.
func abortWithBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Detail: bindErrorDetail(err)})
}

func bindErrorDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Detail: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

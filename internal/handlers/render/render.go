package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report on 'TagName' json tag instead of struct field name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		// skip if tag key says it should be ignored
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

// Debug includes internal error details in 500 bodies
// Meant to be enabled for the dev environment only
var Debug bool

// Error bodies are a bare message object, nothing else
type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// Render an error with the given status code
func Error(w http.ResponseWriter, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Message: message}, code)
}

// Render an unexpected failure as 500, hiding the detail outside debug mode
func InternalError(w http.ResponseWriter, err error) {
	message := "Internal server error"
	if Debug && err != nil {
		message = fmt.Sprintf("Internal server error: %v", err)
	}
	Error(w, message, http.StatusInternalServerError)
}

// Render json decoding failure as 400
func DecodeError(w http.ResponseWriter, err error) {
	// Try to provide more specific message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		Error(w, fmt.Sprintf("Invalid data type for field '%s'", err.Field), http.StatusBadRequest)
	default:
		Error(w, "Invalid JSON in request body", http.StatusBadRequest)
	}
}

// Render validation failures as 400 with user friendly messages
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	messages := make([]string, 0, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", fieldError.Field())
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email", fieldError.Field())
		case "min":
			message = fmt.Sprintf("Field '%s' is too short (minimum %s)", fieldError.Field(), fieldError.Param())
		case "max":
			message = fmt.Sprintf("Field '%s' is too long (maximum %s)", fieldError.Field(), fieldError.Param())
		default:
			message = fmt.Sprintf("Field '%s' has invalid value", fieldError.Field())
		}

		messages = append(messages, message)
	}

	Error(w, strings.Join(messages, ", "), http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

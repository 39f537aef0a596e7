package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"revvel/internal/auth"
)

const maxJSONBodyBytes int64 = 64 << 10 // credentials payloads are tiny

var errPayloadTooLarge = errors.New("payload too large")

// validate checks request payloads. Field names in errors use the json tag.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// userView is the client-facing shape of a user. It never carries the password hash.
type userView struct {
	OpenID       string     `json:"openId"`
	Name         *string    `json:"name"`
	Email        *string    `json:"email"`
	LoginMethod  *string    `json:"loginMethod,omitempty"`
	Role         string     `json:"role,omitempty"`
	LastSignedIn *time.Time `json:"lastSignedIn,omitempty"`
}

func newUserView(user *auth.User) *userView {
	if user == nil {
		return nil
	}
	lastSignedIn := user.LastSignedIn
	loginMethod := user.LoginMethod
	if loginMethod == nil {
		// Older rows carry no login method; the openId prefix still names it.
		if identity, err := auth.ParseOpenID(user.OpenID); err == nil {
			method := identity.LoginMethod()
			loginMethod = &method
		}
	}
	return &userView{
		OpenID:       user.OpenID,
		Name:         user.Name,
		Email:        user.Email,
		LoginMethod:  loginMethod,
		Role:         string(user.Role),
		LastSignedIn: &lastSignedIn,
	}
}

func resultView(result *auth.AuthResult) *userView {
	return &userView{OpenID: result.OpenID, Name: result.Name, Email: result.Email}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limited := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() {
		_ = limited.Close()
	}()

	decoder := json.NewDecoder(limited)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w (max %d bytes)", errPayloadTooLarge, maxErr.Limit)
		}
		return err
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, err error) {
	if errors.Is(err, errPayloadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	// Return generic message to avoid leaking internal JSON parsing details
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// validationMessage turns validator errors into the first client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "Email and password are required"
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// operatorRole matches email/password against the two operator accounts
// read from the environment (DASHBOARD_ADMIN / DASHBOARD_ADMIN_PASSWORD and
// DASHBOARD_VIEWER / DASHBOARD_VIEWER_PASSWORD) and returns the matching
// role. An unset pair disables that role's login.
func operatorRole(email, password string) (string, bool) {
	match := func(userEnv, passEnv string) bool {
		user := os.Getenv(userEnv)
		pass := os.Getenv(passEnv)
		if user == "" || pass == "" {
			return false
		}
		// Hash both sides so the comparison is constant-time regardless of
		// input length.
		uh, ph := sha256.Sum256([]byte(email)), sha256.Sum256([]byte(password))
		euh, eph := sha256.Sum256([]byte(user)), sha256.Sum256([]byte(pass))
		return subtle.ConstantTimeCompare(uh[:], euh[:]) == 1 &&
			subtle.ConstantTimeCompare(ph[:], eph[:]) == 1
	}

	if match("DASHBOARD_ADMIN", "DASHBOARD_ADMIN_PASSWORD") {
		return RoleAdmin, true
	}
	if match("DASHBOARD_VIEWER", "DASHBOARD_VIEWER_PASSWORD") {
		return RoleViewer, true
	}
	return "", false
}

// TokenHandler authenticates an operator and issues a one-hour JWT
// carrying their role, signed with JWT_SECRET.
func TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		role, ok := operatorRole(req.Email, req.Password)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		secret := []byte(os.Getenv("JWT_SECRET"))
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  req.Email,
			"role": role,
			"exp":  time.Now().Add(1 * time.Hour).Unix(),
		})
		signed, err := token.SignedString(secret)
		if err != nil {
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tokenResponse{Token: signed}); err != nil {
			slog.Error("auth: failed to encode token response", slog.Any("error", err))
		}
	}
}

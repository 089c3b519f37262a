// internal/adapters/in/http/handlers/account_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"messenger/internal/adapters/in/http/middleware"
	usecase "messenger/internal/application/usecase"
	userdom "messenger/internal/domain/user"
)

// AccountHandler は /accounts 関連のエンドポイントを担当します。
type AccountHandler struct {
	uc *usecase.AccountUsecase
}

func NewAccountHandler(uc *usecase.AccountUsecase) http.Handler {
	return &AccountHandler{uc: uc}
}

func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/accounts":
		h.register(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/accounts/search":
		h.search(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/accounts/"):
		h.get(w, r, strings.TrimPrefix(r.URL.Path, "/accounts/"))
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
	}
}

// POST /accounts
func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid body"})
		return
	}

	u, err := h.uc.Register(r.Context(), in)
	if err != nil {
		writeAccountErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}

// GET /accounts/search?q=<prefix>
func (h *AccountHandler) search(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	results, err := h.uc.Search(r.Context(), sess, r.URL.Query().Get("q"))
	if err != nil {
		writeAccountErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(results)
}

// GET /accounts/{safeEmail}
func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	u, err := h.uc.Get(r.Context(), key)
	if err != nil {
		writeAccountErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(u)
}

func writeAccountErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, userdom.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, userdom.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, userdom.ErrInvalidEmail),
		errors.Is(err, userdom.ErrInvalidFirstName),
		errors.Is(err, userdom.ErrInvalidLastName):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoSession):
		code = http.StatusUnauthorized
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

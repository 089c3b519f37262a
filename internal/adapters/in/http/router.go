// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"messenger/internal/adapters/in/http/handlers"
	"messenger/internal/adapters/in/http/middleware"
	usecase "messenger/internal/application/usecase"
	userdom "messenger/internal/domain/user"
)

// RouterDeps collects the usecases (and auth dependencies) injected from
// the DI container.
type RouterDeps struct {
	AccountUC *usecase.AccountUsecase
	SyncUC    *usecase.SyncUsecase
	MediaUC   *usecase.MediaUsecase

	FirebaseAuth *middleware.FirebaseAuthClient
	UserRepo     userdom.Repository
}

// NewRouter sets up HTTP routing. Registration is the only unauthenticated
// endpoint; everything else sits behind the Firebase ID-token middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	auth := &middleware.AuthMiddleware{
		FirebaseAuth: deps.FirebaseAuth,
		UserRepo:     deps.UserRepo,
	}

	// Usecase が存在するものだけマウントする
	if deps.AccountUC != nil {
		h := handlers.NewAccountHandler(deps.AccountUC)
		mux.Handle("/accounts", h) // POST /accounts (register, no token yet)
		mux.Handle("/accounts/", auth.Handler(h))
	}

	if deps.SyncUC != nil {
		h := handlers.NewConversationHandler(deps.SyncUC)
		mux.Handle("/conversations", auth.Handler(h))
		mux.Handle("/conversations/", auth.Handler(h))
	}

	if deps.MediaUC != nil {
		h := handlers.NewMediaHandler(deps.MediaUC)
		mux.Handle("/media/", auth.Handler(h))
	}

	return mux
}

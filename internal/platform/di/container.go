// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	httpin "messenger/internal/adapters/in/http"
	dbadapter "messenger/internal/adapters/out/db"
	fsadapter "messenger/internal/adapters/out/firestore"
	"messenger/internal/adapters/out/gcs"
	"messenger/internal/adapters/out/mail"
	"messenger/internal/application/usecase"
	convdom "messenger/internal/domain/conversation"
	userdom "messenger/internal/domain/user"
	"messenger/internal/infra/config"
	"messenger/internal/infra/database"
	firestoreinfra "messenger/internal/infra/firestore"
	"messenger/internal/infra/secrets"
)

// ============================================================
// DI コンテナ
//   config → infra クライアント → repositories → usecases の
//   順で組み立てる。ストアのバックエンド（firestore / postgres）
//   は Config.StoreBackend で選択する。
// ============================================================

type Container struct {
	Config *config.Config

	// infra clients（backend に応じてどちらか一方だけ生きる）
	Firestore *firestoreinfra.ClientWrapper
	DB        *database.DB
	GCS       *storage.Client

	FirebaseApp  *firebase.App
	FirebaseAuth *fbauth.Client

	// repositories
	UserRepo  userdom.Repository
	Directory convdom.Directory
	Log       convdom.Log

	// usecases
	AccountUC *usecase.AccountUsecase
	SyncUC    *usecase.SyncUsecase
	MediaUC   *usecase.MediaUsecase
}

// NewContainer は設定を読み込み、全依存を組み立てる。
// ストア（Firestore もしくは Postgres）の初期化失敗は致命。
// GCS / Firebase Auth / SendGrid は縮退可（WARN ログのみ）。
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := config.Load()
	c := &Container{Config: cfg}

	// 1) ストア（strict）
	if cfg.UsePostgres() {
		if err := c.initPostgres(ctx, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := c.initFirestore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	// 2) GCS（best-effort: 無ければメディア機能を無効化）
	c.initGCS(ctx, cfg)

	// 3) Firebase App / Auth（best-effort: 無ければ認証ミドルウェアが拒否）
	c.initFirebaseAuth(ctx, cfg)

	// 4) usecases
	c.AccountUC = usecase.NewAccountUsecase(c.UserRepo)
	if mailer, from := c.buildMailer(ctx, cfg); mailer != nil {
		c.AccountUC = c.AccountUC.WithMailer(mailer, from)
	}
	c.SyncUC = usecase.NewSyncUsecase(c.Directory, c.Log)
	if c.GCS != nil {
		store := gcs.NewMediaRepositoryGCS(c.GCS, cfg.GCSBucket)
		c.MediaUC = usecase.NewMediaUsecase(store)
	}

	return c, nil
}

func (c *Container) initFirestore(ctx context.Context, cfg *config.Config) error {
	cw, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
	if err != nil {
		return fmt.Errorf("di: firestore init: %w", err)
	}
	c.Firestore = cw
	c.UserRepo = fsadapter.NewUserRepositoryFS(cw.Client)
	c.Directory = fsadapter.NewDirectoryFS(cw.Client)
	c.Log = fsadapter.NewLogFS(cw.Client)
	log.Printf("[DI] store backend: firestore (project=%s)", cfg.FirestoreProjectID)
	return nil
}

func (c *Container) initPostgres(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("di: STORE_BACKEND=postgres but DATABASE_URL is empty")
	}
	dbc, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("di: postgres init: %w", err)
	}
	if err := dbadapter.EnsureSchema(ctx, dbc.Client); err != nil {
		_ = dbc.Close()
		return fmt.Errorf("di: ensure schema: %w", err)
	}
	c.DB = dbc
	c.UserRepo = dbadapter.NewUserRepositoryPG(dbc.Client)
	c.Directory = dbadapter.NewDirectoryPG(dbc.Client)
	c.Log = dbadapter.NewLogPG(dbc.Client, dbc.DSN)
	log.Println("[DI] store backend: postgres")
	return nil
}

func (c *Container) initGCS(ctx context.Context, cfg *config.Config) {
	var opts []option.ClientOption
	if cfg.GCPCreds != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCreds))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		log.Printf("[DI] ⚠️ GCS client init failed (media disabled): %v", err)
		return
	}
	c.GCS = client
}

func (c *Container) initFirebaseAuth(ctx context.Context, cfg *config.Config) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
	if err != nil {
		log.Printf("[DI] ⚠️ firebase app init failed (auth disabled): %v", err)
		return
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		log.Printf("[DI] ⚠️ firebase auth init failed (auth disabled): %v", err)
		return
	}
	c.FirebaseApp = app
	c.FirebaseAuth = authClient
}

// buildMailer は SendGrid クライアントを返す。API キーは env 直指定か
// Secret Manager 経由のどちらか。揃わなければ nil（ようこそメール無効）。
func (c *Container) buildMailer(ctx context.Context, cfg *config.Config) (usecase.Mailer, string) {
	if cfg.MailFrom == "" {
		return nil, ""
	}
	key := cfg.SendGridAPIKey
	if key == "" && cfg.SendGridKeySecret != "" {
		v, err := secrets.Access(ctx, cfg.FirebaseProjectID, cfg.SendGridKeySecret)
		if err != nil {
			log.Printf("[DI] ⚠️ sendgrid key fetch failed (mail disabled): %v", err)
			return nil, ""
		}
		key = v
	}
	if key == "" {
		return nil, ""
	}
	return mail.NewSendGridClient(key), cfg.MailFrom
}

// RouterDeps は HTTP ルータへ渡す依存を返す。
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		AccountUC:    c.AccountUC,
		SyncUC:       c.SyncUC,
		MediaUC:      c.MediaUC,
		FirebaseAuth: c.FirebaseAuth,
		UserRepo:     c.UserRepo,
	}
}

// Close は保持しているクライアントを解放する。
func (c *Container) Close() {
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			log.Printf("[DI] firestore close: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[DI] db close: %v", err)
		}
	}
	if c.GCS != nil {
		if err := c.GCS.Close(); err != nil {
			log.Printf("[DI] gcs close: %v", err)
		}
	}
}

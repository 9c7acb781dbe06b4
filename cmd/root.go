package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avelara/instagate/botengine"
	"github.com/avelara/instagate/config"
	domainAccess "github.com/avelara/instagate/domains/access"
	domainChat "github.com/avelara/instagate/domains/chat"
	domainContent "github.com/avelara/instagate/domains/content"
	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/infrastructure/auditlog"
	"github.com/avelara/instagate/infrastructure/scraper"
	"github.com/avelara/instagate/infrastructure/transport"
	"github.com/avelara/instagate/pkg/msgworker"
	"github.com/avelara/instagate/pkg/permstore"
	"github.com/avelara/instagate/usecase"
)

var (
	// Persistence
	permStore *permstore.Store
	auditDB   *sql.DB
	auditRepo auditlog.IAuditRepository

	// Usecase
	permissionUsecase domainPermission.IPermissionUsecase
	accessUsecase     domainAccess.IAccessUsecase

	// Infrastructure
	chatTransport  domainChat.ITransport
	contentFetcher domainContent.IFetcher

	// Bot Engine
	messagePool *msgworker.Pool
	botEngine   *botengine.Engine
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "instagate",
	Short: "Access-gated Instagram fetch bot",
	Long: `Gateway between a chat transport and an Instagram profile scraper.
Only users on a persisted allow-list can trigger fetches; everyone else
is walked through an access-request flow moderated by the admin.`,
}

func init() {
	if _, err := config.LoadConfig(); err != nil {
		logrus.Fatalf("[APP] Failed to load configuration: %v", err)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig applies environment overrides on top of the loaded
// configuration.
func initEnvConfig() {
	viper.AutomaticEnv()

	// Application settings
	if envPort := viper.GetString("app_port"); envPort != "" {
		config.Global.App.Port = envPort
	}
	if viper.IsSet("app_debug") {
		config.Global.App.Debug = viper.GetBool("app_debug")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		config.Global.App.BasePath = envBasePath
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		config.Global.App.BasicAuth = strings.Split(envBasicAuth, ",")
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		config.Global.App.TrustedProxies = strings.Split(envTrustedProxies, ",")
	}

	// Access settings
	if envAdminID := viper.GetInt64("access_admin_id"); envAdminID != 0 {
		config.Global.Access.AdminID = envAdminID
	}
	if viper.IsSet("access_status_legacy_grant") {
		config.Global.Access.StatusLegacyGrant = viper.GetBool("access_status_legacy_grant")
	}
}

func initFlags() {
	// Application flags
	rootCmd.PersistentFlags().StringVarP(
		&config.Global.App.Port,
		"port", "p",
		config.Global.App.Port,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&config.Global.App.Debug,
		"debug", "d",
		config.Global.App.Debug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&config.Global.App.BasicAuth,
		"basic-auth", "b",
		config.Global.App.BasicAuth,
		"basic auth credential | -b=yourUsername:yourPassword",
	)

	// Access flags
	rootCmd.PersistentFlags().Int64VarP(
		&config.Global.Access.AdminID,
		"admin-id", "",
		config.Global.Access.AdminID,
		`chat id of the moderating admin --admin-id <number> | example: --admin-id=123456`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&config.Global.Paths.PermissionFile,
		"store-file", "",
		config.Global.Paths.PermissionFile,
		`path of the permission store file --store-file <string> | example: --store-file="storages/permissions.json"`,
	)

	// Message Worker Pool flags
	rootCmd.PersistentFlags().IntVarP(
		&config.Global.WorkerPool.Size,
		"message-workers", "",
		config.Global.WorkerPool.Size,
		`number of concurrent message workers --message-workers <number> | example: --message-workers=30 (default: 20)`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&config.Global.WorkerPool.QueueSize,
		"message-queue-size", "",
		config.Global.WorkerPool.QueueSize,
		`queue size per message worker --message-queue-size <number> | example: --message-queue-size=1500 (default: 1000)`,
	)
}

func initApp() {
	if config.Global.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(config.Global.Paths.Storages, 0o755); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()

	// Audit log (grants history)
	var err error
	auditDB, err = sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&_journal_mode=WAL", config.Global.Paths.AuditDB))
	if err != nil {
		logrus.Fatalf("[APP] Failed to open audit db: %v", err)
	}
	repo := auditlog.NewSQLiteRepository(auditDB)
	if err := repo.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init audit repo: %v", err)
	}
	auditRepo = repo

	// Permission store and usecases
	permStore = permstore.New(config.Global.Paths.PermissionFile, config.Global.Access.AdminID)
	permissionUsecase = usecase.NewPermissionService(permStore)

	chatTransport = transport.NewWebhookTransport(config.Global.Transport)
	accessUsecase = usecase.NewAccessService(permStore, chatTransport, auditRepo, config.Global.Access)

	contentFetcher = scraper.NewProfileScraper(config.Global.Scraper)

	// Bot engine over the sharded worker pool
	messagePool = msgworker.NewPool(config.Global.WorkerPool.Size, config.Global.WorkerPool.QueueSize)
	botEngine = botengine.NewEngine(
		chatTransport,
		permissionUsecase,
		accessUsecase,
		contentFetcher,
		messagePool,
		config.Global.Access.DefaultFetchCount,
	)

	if config.Global.Access.AdminID == 0 {
		logrus.Warn("[APP] ACCESS_ADMIN_ID is not set, access requests cannot be moderated until an admin is configured")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the worker pool and open databases.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if messagePool != nil {
		messagePool.Stop()
	}
	if auditRepo != nil {
		if err := auditRepo.Close(); err != nil {
			logrus.Errorf("[APP] Error closing audit repo: %v", err)
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/activity"
	"github.com/campushub/campus-forum/internal/auth"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/channel"
	channelpg "github.com/campushub/campus-forum/internal/channel/postgres"
	"github.com/campushub/campus-forum/internal/comment"
	commentpg "github.com/campushub/campus-forum/internal/comment/postgres"
	"github.com/campushub/campus-forum/internal/core/events"
	"github.com/campushub/campus-forum/internal/event"
	eventpg "github.com/campushub/campus-forum/internal/event/postgres"
	"github.com/campushub/campus-forum/internal/group"
	grouppg "github.com/campushub/campus-forum/internal/group/postgres"
	"github.com/campushub/campus-forum/internal/post"
	postpg "github.com/campushub/campus-forum/internal/post/postgres"
	"github.com/campushub/campus-forum/internal/tag"
	tagpg "github.com/campushub/campus-forum/internal/tag/postgres"
	"github.com/campushub/campus-forum/internal/transport/rest"
	"github.com/campushub/campus-forum/internal/user"
	userpg "github.com/campushub/campus-forum/internal/user/postgres"
	"github.com/campushub/campus-forum/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the existing pgx connection pool
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// repositories
	userRepo := userpg.NewUserRepository(gormDB)
	channelRepo := channelpg.NewChannelRepository(gormDB)
	groupRepo := grouppg.NewGroupRepository(gormDB)
	postRepo := postpg.NewPostRepository(gormDB)
	commentRepo := commentpg.NewCommentRepository(gormDB)
	tagRepo := tagpg.NewTagRepository(gormDB)
	eventRepo := eventpg.NewEventRepository(gormDB)
	activityStore := activity.NewStore(db, log)

	// authorization core
	resolver := authz.NewResolver(userRepo, cfg.Forum.AdminEmailList(), log)
	evaluator := authz.NewEvaluator(resolver, groupRepo, log)
	gate := authz.NewGate(resolver, groupRepo, channelRepo, tagRepo, log)

	// event bus and subscribers
	bus := events.NewEventBus(log)
	activity.NewEventHandler(activityStore, log).Subscribe(bus)

	// services
	authService := auth.NewService(userRepo, resolver, cfg.Security, log)
	userService := user.NewService(userRepo, activityStore, resolver, activityStore, log)
	channelService := channel.NewService(channelRepo, userRepo, evaluator, activityStore, bus, log)
	groupService := group.NewService(groupRepo, userRepo, resolver, activityStore, log)
	postService := post.NewService(postRepo, channelRepo, gate, evaluator, activityStore, bus, cfg.Forum, log)
	commentService := comment.NewService(commentRepo, postRepo, channelRepo, evaluator, cfg.Forum, log)
	tagService := tag.NewService(tagRepo, channelRepo, evaluator, log)
	eventService := event.NewService(eventRepo, groupRepo, resolver, cfg.Forum.CouncilGroupSlug, log)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:    auth.NewHandler(authService, log),
		User:    user.NewHandler(userService, log),
		Channel: channel.NewHandler(channelService, log),
		Group:   group.NewHandler(groupService, log),
		Post:    post.NewHandler(postService, log),
		Comment: comment.NewHandler(commentService, log),
		Tag:     tag.NewHandler(tagService, log),
		Event:   event.NewHandler(eventService, log),
	}, cfg.Server.AllowedOrigins, log)

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Router: router,
		Logger: log,
	}, nil
}

// initDB opens the pgx-backed connection pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/feliciasalim/PPL/internal/api/auth"
	"github.com/feliciasalim/PPL/internal/api/middleware"
	"github.com/feliciasalim/PPL/internal/config"
	"github.com/feliciasalim/PPL/internal/ml"
	"github.com/feliciasalim/PPL/internal/model"
	"github.com/feliciasalim/PPL/internal/pkg/cooldown"
	"github.com/feliciasalim/PPL/internal/pkg/metrics"
	"github.com/feliciasalim/PPL/internal/pkg/notify"
	"github.com/feliciasalim/PPL/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server wires the handlers to their collaborators: the database, redis,
// the analysis service client and the SMTP mailer.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine
	auth   *auth.Handler

	users    UserStore
	history  HistoryStore
	resets   ResetStore
	feedback FeedbackStore
	articles ArticleStore

	analyzer  Analyzer
	mailer    Mailer
	limiter   SubmitLimiter
	resetGate ResetGate
}

// Analyzer is the external analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*ml.Result, error)
}

// Mailer delivers password-reset codes.
type Mailer interface {
	SendResetCode(toEmail string, code string, ttlMinutes int) error
}

// SubmitLimiter throttles curhat submissions per caller.
type SubmitLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ResetGate enforces the per-email cooldown on reset-code requests.
type ResetGate interface {
	Acquire(ctx context.Context, email string) (bool, error)
	Release(ctx context.Context, email string) error
}

// UserStore is the user slice of storage.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	DeleteWithHistory(ctx context.Context, id uint) error
}

// HistoryStore is the history slice of storage.
type HistoryStore interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	ListByUser(ctx context.Context, userID uint) ([]model.HistoryEntry, error)
	GetOwned(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error)
	ListSince(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error)
	CountSince(ctx context.Context, userID uint, since time.Time) (int64, error)
	ListRecent(ctx context.Context, userID uint, limit int) ([]model.HistoryEntry, error)
}

// ResetStore is the password-reset-code slice of storage.
type ResetStore interface {
	CreateCode(ctx context.Context, code *model.ResetCode) error
	FindValid(ctx context.Context, email string, code string, now time.Time) (*model.ResetCode, error)
	MarkUsed(ctx context.Context, id uint) error
}

// FeedbackStore is the feedback slice of storage.
type FeedbackStore interface {
	List(ctx context.Context) ([]model.Feedback, error)
	Create(ctx context.Context, fb *model.Feedback) error
	GetByID(ctx context.Context, id uint) (*model.Feedback, error)
}

// ArticleStore is the article slice of storage.
type ArticleStore interface {
	List(ctx context.Context) ([]model.Article, error)
}

type dbUserStore struct {
	db *gorm.DB
}

func (s dbUserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s dbUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s dbUserStore) Update(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// DeleteWithHistory removes the user's history rows and the user row in
// one transaction, so a failure mid-way leaves the account intact.
func (s dbUserStore) DeleteWithHistory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.HistoryEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, id).Error
	})
}

type dbHistoryStore struct {
	db *gorm.DB
}

func (s dbHistoryStore) Create(ctx context.Context, entry *model.HistoryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s dbHistoryStore) ListByUser(ctx context.Context, userID uint) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (s dbHistoryStore) GetOwned(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s dbHistoryStore) ListSince(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (s dbHistoryStore) CountSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.HistoryEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s dbHistoryStore) ListRecent(ctx context.Context, userID uint, limit int) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

type dbResetStore struct {
	db *gorm.DB
}

func (s dbResetStore) CreateCode(ctx context.Context, code *model.ResetCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s dbResetStore) FindValid(ctx context.Context, email string, code string, now time.Time) (*model.ResetCode, error) {
	var rc model.ResetCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND code = ? AND used = ? AND expires_at > ?", email, code, false, now).
		Order("created_at DESC").
		First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (s dbResetStore) MarkUsed(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&model.ResetCode{}).
		Where("id = ?", id).
		Update("used", true).Error
}

type dbFeedbackStore struct {
	db *gorm.DB
}

func (s dbFeedbackStore) List(ctx context.Context) ([]model.Feedback, error) {
	var items []model.Feedback
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s dbFeedbackStore) Create(ctx context.Context, fb *model.Feedback) error {
	return s.db.WithContext(ctx).Create(fb).Error
}

func (s dbFeedbackStore) GetByID(ctx context.Context, id uint) (*model.Feedback, error) {
	var fb model.Feedback
	if err := s.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

type dbArticleStore struct {
	db *gorm.DB
}

func (s dbArticleStore) List(ctx context.Context) ([]model.Article, error) {
	var items []model.Article
	err := s.db.WithContext(ctx).
		Select("id", "title", "link", "image", "intro").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// NewServer connects MySQL and redis, runs migrations and builds the router.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.HistoryEntry{},
		&model.ResetCode{},
		&model.Feedback{},
		&model.Article{},
	); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())

	s := &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
		router: r,
		auth:   auth.NewHandler(auth.GormUserStore{DB: db}, cfg.Security.JWTSecret, logger),

		users:    dbUserStore{db: db},
		history:  dbHistoryStore{db: db},
		resets:   dbResetStore{db: db},
		feedback: dbFeedbackStore{db: db},
		articles: dbArticleStore{db: db},

		analyzer:  ml.NewClient(cfg.ML.Endpoint, cfg.ML.APIKey, cfg.ML.Timeout, logger),
		mailer:    notify.NewEmailNotifier(&cfg.Email, logger),
		limiter:   ratelimit.NewLimiter(rdb, logger, "curhat:ratelimit:submit:", cfg.App.RateLimit, cfg.App.RateBurst),
		resetGate: cooldown.NewGate(rdb, cfg.App.ResetCodeCooldown),
	}
	s.registerRoutes()
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database and cache connections.
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)

	s.router.POST("/forgot-password/request", s.handleForgotPasswordRequest)
	s.router.POST("/forgot-password/verify", s.handleForgotPasswordVerify)
	s.router.POST("/forgot-password/reset", s.handleForgotPasswordReset)

	s.router.POST("/curhat", middleware.OptionalAuthMiddleware(s.cfg.Security.JWTSecret), s.handleCurhat)

	s.router.GET("/feedback", s.handleListFeedback)
	s.router.GET("/feedback/:id", s.handleGetFeedback)
	s.router.POST("/feedback", s.handleCreateFeedback)
	s.router.GET("/articles", s.handleListArticles)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))
	authed.GET("/api/profile", s.handleGetProfile)
	authed.PUT("/api/profile", s.handleUpdateProfile)
	authed.DELETE("/api/profile", s.handleDeleteProfile)
	authed.GET("/api/history", s.handleListHistory)
	authed.GET("/api/history/:id", s.handleHistoryDetail)
	authed.GET("/summary", s.handleSummary)
	authed.GET("/recent", s.handleRecentHistory)
	authed.GET("/detail/:id", s.handleHistoryDetail)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getUserID(c *gin.Context) uint {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"sol-swap/pkg/metrics"
	"sol-swap/pkg/store"
	"sol-swap/pkg/types"
)

const userKey = "user"

func (s *Server) registerRoutes() {
	e := s.app

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)

	auth := api.Group("/auth")
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout, s.optionalAuth)
	auth.GET("/profile", s.handleProfile, s.requireAuth)
	auth.PUT("/profile", s.handleUpdateProfile, s.requireAuth)
	auth.POST("/reset-password", s.handleResetPassword)

	tx := api.Group("/transactions")
	tx.GET("/recent", s.handleRecent, s.optionalAuth)
	tx.GET("/user", s.handleUserTransactions, s.requireAuth)
	tx.GET("/test", s.handleTest)
	tx.POST("", s.handleCreateTransaction, s.optionalAuth)
	tx.PATCH("/:id", s.handleUpdateTransaction, s.requireAuth)
	tx.GET("/:id", s.handleGetTransaction, s.optionalAuth)
}

func bearer(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearer(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
		}
		u, err := s.opts.Store.UserBySession(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
		c.Set(userKey, u)
		return next(c)
	}
}

// optionalAuth attaches the user when a valid token is sent and ignores
// anything else.
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := bearer(c); token != "" {
			if u, err := s.opts.Store.UserBySession(c.Request().Context(), token); err == nil {
				c.Set(userKey, u)
			}
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *types.User {
	u, _ := c.Get(userKey).(*types.User)
	return u
}

func validWallet(addr string) bool {
	if addr == "" {
		return true
	}
	_, err := solana.PublicKeyFromBase58(addr)
	return err == nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "OK"})
}

type credentialsRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"wallet_address"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	if !validWallet(req.WalletAddress) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid wallet address")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid password")
	}
	u, err := s.opts.Store.CreateUser(c.Request().Context(), req.Email, string(hash), req.WalletAddress)
	if errors.Is(err, store.ErrDuplicate) {
		return echo.NewHTTPError(http.StatusConflict, "User already registered")
	}
	if err != nil {
		s.log.Error("registration failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Registration failed")
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    u,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	ctx := c.Request().Context()
	u, hash, err := s.opts.Store.UserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error("login lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid login credentials")
	}
	sess, err := s.opts.Store.CreateSession(ctx, u.ID, s.opts.SessionTTL)
	if err != nil {
		s.log.Error("session create failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    u,
		"session": sess,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if token := bearer(c); token != "" {
		if err := s.opts.Store.DeleteSession(c.Request().Context(), token); err != nil {
			s.log.Error("logout failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Logout failed")
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (s *Server) handleProfile(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"user": currentUser(c)})
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req struct {
		WalletAddress string `json:"wallet_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !validWallet(req.WalletAddress) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid wallet address")
	}
	u, err := s.opts.Store.UpdateUserWallet(c.Request().Context(), currentUser(c).ID, req.WalletAddress)
	if err != nil {
		s.log.Error("profile update failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Profile update failed")
	}
	return c.JSON(http.StatusOK, map[string]any{"user": u})
}

// handleResetPassword always answers the same way so it cannot be used to
// probe for accounts. Delivery is left to an external mailer.
func (s *Server) handleResetPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	s.log.Info("password reset requested", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, map[string]any{"message": "Password reset email sent"})
}

func (s *Server) handleRecent(c echo.Context) error {
	recs, err := s.opts.Store.ListRecent(c.Request().Context(), c.QueryParam("wallet_address"), recentLimit)
	if err != nil {
		s.log.Error("list recent failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transactions")
	}
	public := lo.Map(recs, func(r types.TransactionRecord, _ int) types.TransactionRecord {
		r.Status = ""
		return r
	})
	return c.JSON(http.StatusOK, map[string]any{"transactions": public})
}

func (s *Server) handleUserTransactions(c echo.Context) error {
	wallet := currentUser(c).WalletAddress
	if wallet == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No wallet address linked to this account")
	}
	recs, err := s.opts.Store.ListByWallet(c.Request().Context(), wallet, userLimit)
	if err != nil {
		s.log.Error("list user transactions failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user transactions")
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": recs})
}

func (s *Server) handleCreateTransaction(c echo.Context) error {
	var rec types.TransactionRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if rec.WalletAddress == "" || rec.FromToken == "" || rec.ToToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "wallet_address, from_token and to_token are required")
	}
	if rec.Status != "" && !rec.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
	}
	rec.ID = ""
	rec.UpdatedAt = nil

	saved, err := s.opts.Store.CreateTransaction(c.Request().Context(), rec)
	if err != nil {
		s.log.Error("create transaction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to create transaction",
			"details": err.Error(),
		})
	}
	s.log.Info("transaction created",
		zap.String("id", saved.ID),
		zap.String("wallet", saved.WalletAddress),
		zap.String("txHash", saved.TxHash))
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "transaction": saved})
}

func (s *Server) handleUpdateTransaction(c echo.Context) error {
	var upd types.TransactionUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if upd.Status != "" && !upd.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
	}
	rec, err := s.opts.Store.UpdateTransaction(c.Request().Context(), c.Param("id"), currentUser(c).WalletAddress, upd)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
	}
	if err != nil {
		s.log.Error("update transaction failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update transaction")
	}
	return c.JSON(http.StatusOK, map[string]any{"transaction": rec})
}

func (s *Server) handleGetTransaction(c echo.Context) error {
	rec, err := s.opts.Store.GetTransaction(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
	}
	if err != nil {
		s.log.Error("get transaction failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transaction")
	}
	return c.JSON(http.StatusOK, map[string]any{"transaction": rec})
}

func (s *Server) handleTest(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.opts.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Database connection failed",
			"details": err.Error(),
		})
	}
	count, err := s.opts.Store.CountTransactions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Database connection failed",
			"details": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Database connection successful",
		"count":   count,
	})
}

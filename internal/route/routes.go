package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/prabhuzz00/ColorWavePrediction/internal/controller"
	"github.com/prabhuzz00/ColorWavePrediction/internal/handler"
	"github.com/prabhuzz00/ColorWavePrediction/internal/middleware"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
)

func AuthRoutes(r *gin.Engine, users *repo.UserRepo) {
	auth := r.Group("/api/auth")

	auth.POST("/register", controller.Register(users))
	auth.POST("/login", controller.SignIn(users))
}

func GameRoutes(r *gin.Engine, h *handler.Handler, users *repo.UserRepo) {
	game := r.Group("/api/game")

	// Round state and history are public so the lobby can render
	// before login.
	game.GET("/status", h.Game.Status)
	game.GET("/results", h.Game.Results)
	game.GET("/chart", h.Game.Chart)

	authed := game.Group("")
	authed.Use(middleware.RequireAuth(users))
	authed.GET("/info", h.Game.Info)
	authed.POST("/bet", middleware.RateLimit(rate.Limit(5), 10), h.Game.PlaceBet)
}

func UserRoutes(r *gin.Engine, h *handler.Handler, users *repo.UserRepo) {
	api := r.Group("/api")
	api.Use(middleware.RequireAuth(users))

	api.GET("/bets/:username", h.Game.BetHistory)
	api.GET("/transactions/:username", h.Game.TransactionHistory)

	api.POST("/recharge", h.Funding.CreateRecharge)
	api.GET("/recharge/history/:username", h.Funding.RechargeHistory)
	api.POST("/withdraw", h.Funding.CreateWithdrawal)
	api.GET("/withdraw/history/:username", h.Funding.WithdrawalHistory)
}

func AdminRoutes(r *gin.Engine, h *handler.Handler) {
	admin := r.Group("/api/admin")

	admin.POST("/login", controller.AdminSignIn())

	guarded := admin.Group("")
	guarded.Use(middleware.RequireAdmin())
	guarded.GET("/recharges", h.Admin.ListRecharges)
	guarded.PUT("/recharges/:id", h.Admin.UpdateRecharge)
	guarded.GET("/withdrawals", h.Admin.ListWithdrawals)
	guarded.PUT("/withdrawals/:id", h.Admin.UpdateWithdrawal)
	guarded.GET("/game-monitor", h.Admin.GameMonitor)
	guarded.POST("/set-result", h.Admin.SetResult)
}

func SystemRoutes(r *gin.Engine, h *handler.Handler) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", h.WS.HandleWebSocket)
}

func Register(r *gin.Engine, h *handler.Handler, users *repo.UserRepo) {
	SystemRoutes(r, h)
	AuthRoutes(r, users)
	GameRoutes(r, h, users)
	UserRoutes(r, h, users)
	AdminRoutes(r, h)
}

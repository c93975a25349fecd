package main

import (
	"context"
	"fmt"
	"log"
	"pickem/client"
	"pickem/config"
	"pickem/controller"
	"pickem/cron"
	"pickem/docs"
	"pickem/service"
	"regexp"
	"strings"
	"time"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

// @title           Pickem Backend API
// @version         1.0
// @description     Round lifecycle, pick submission and scoring for the pickem contest.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	t := time.Now()

	cfg := config.Env()
	db, err := config.InitDB(
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.DatabaseName,
	)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := config.CreateActivityTopic(); err != nil {
		log.Printf("Activity topic unavailable: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	err = r.SetTrustedProxies(nil)
	if err != nil {
		fmt.Println("Failed to set trusted proxies:", err)
		return
	}
	addLogger(r)
	addMetrics(r)
	addDocs(r)
	setCors(r)
	cacheStore := persistence.NewInMemoryStore(60 * time.Second)
	controller.SetRoutes(r, db, cacheStore)

	notificationService := service.NewNotificationService(client.NewMailClient())
	roundService := service.NewRoundService(db, notificationService)
	scheduler := cron.NewScheduler(db, roundService, notificationService)
	go scheduler.Start(context.Background())

	fmt.Println("Server started in", time.Since(t))
	err = r.Run(":8000")
	if err != nil {
		fmt.Println("Failed to start server:", err)
	}
}

func addLogger(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/metrics"},
		Skip: func(c *gin.Context) bool {
			// Magic-link tokens must not end up in access logs.
			return c.Request.URL.Query().Get("token") != ""
		},
	}))
}

func addMetrics(r *gin.Engine) {
	p := ginprometheus.NewPrometheus("gin")
	re := regexp.MustCompile(`\d+`)
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := strings.Split(c.Request.URL.String(), "?")[0]
		url = re.ReplaceAllString(url, "?")
		return strings.TrimPrefix(url, "/api")
	}
	p.MetricsPath = "/api/metrics"
	p.Use(r)
}

func addDocs(r *gin.Engine) {
	docs.SwaggerInfo.BasePath = "/api"
	r.GET("/api/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

func setCors(r *gin.Engine) {
	corsConfigGetOptions := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	corsConfigOtherMethods := cors.Config{
		AllowOrigins: []string{
			config.Env().FrontendURL,
			"http://localhost",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	r.Use(func(c *gin.Context) {
		if c.Request.Method == "OPTIONS" {
			requestedMethod := c.GetHeader("Access-Control-Request-Method")
			if requestedMethod == "GET" || requestedMethod == "OPTIONS" {
				cors.New(corsConfigGetOptions)(c)
			} else {
				cors.New(corsConfigOtherMethods)(c)
			}
			c.AbortWithStatus(204)
			return
		}

		if c.Request.Method == "GET" {
			cors.New(corsConfigGetOptions)(c)
		} else {
			cors.New(corsConfigOtherMethods)(c)
		}
	})
}

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.vocdoni.io/dvote/log"

	"github.com/veilpool/veilpool/pool"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port and the pool engine to serve.
type APIConfig struct {
	Host   string
	Port   int
	Engine *pool.Engine
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	engine *pool.Engine
}

// New creates a new API instance with the given configuration and starts the
// HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Engine == nil {
		return nil, fmt.Errorf("missing engine instance")
	}
	a := &API{
		engine: conf.Engine,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", PoolsEndpoint, "method", "POST")
	a.router.Post(PoolsEndpoint, a.newPool)
	log.Infow("register handler", "endpoint", PoolEndpoint, "method", "GET")
	a.router.Get(PoolEndpoint, a.poolInfo)
	log.Infow("register handler", "endpoint", PoolRootEndpoint, "method", "GET")
	a.router.Get(PoolRootEndpoint, a.poolRoot)
	log.Infow("register handler", "endpoint", PoolKnownRootEndpoint, "method", "GET")
	a.router.Get(PoolKnownRootEndpoint, a.knownRoot)
	log.Infow("register handler", "endpoint", DepositEndpoint, "method", "POST")
	a.router.Post(DepositEndpoint, a.deposit)
	log.Infow("register handler", "endpoint", WithdrawEndpoint, "method", "POST")
	a.router.Post(WithdrawEndpoint, a.withdraw)
	log.Infow("register handler", "endpoint", JoinSplitEndpoint, "method", "POST")
	a.router.Post(JoinSplitEndpoint, a.joinSplit)
	log.Infow("register handler", "endpoint", MembershipEndpoint, "method", "POST")
	a.router.Post(MembershipEndpoint, a.membership)
	log.Infow("register handler", "endpoint", BatchEndpoint, "method", "POST")
	a.router.Post(BatchEndpoint, a.batch)
	log.Infow("register handler", "endpoint", ReceiptEndpoint, "method", "GET")
	a.router.Get(ReceiptEndpoint, a.receipt)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}

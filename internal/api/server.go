// Package api provides the HTTP API server for the gallery.
package api

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/feed"
	"github.com/luloxi/molotov/internal/ipfs"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/pricing"
	"github.com/luloxi/molotov/internal/service"
	"github.com/luloxi/molotov/internal/types"
)

// Service interfaces for dependency injection and testing

// FeedProvider exposes the live activity feed.
type FeedProvider interface {
	Snapshot() feed.Snapshot
	Refresh(ctx context.Context) error
}

// GalleryProvider exposes the assembled gallery and artist profiles.
type GalleryProvider interface {
	GetGallery(ctx context.Context, sortBy types.GallerySort, filter service.GalleryFilter) ([]models.GalleryItem, error)
	GetArtwork(ctx context.Context, tokenID string) (*models.GalleryItem, error)
	GetArtists(ctx context.Context) ([]models.ArtistProfile, error)
	GetArtist(ctx context.Context, address string) (*models.ArtistProfile, error)
}

// EngagementProvider exposes views, likes and curation categories.
type EngagementProvider interface {
	RecordView(ctx context.Context, tokenID, ip, userID string) (*service.ViewResult, error)
	ToggleLike(ctx context.Context, tokenID, userAddress string) (*service.LikeResult, error)
	HasLiked(ctx context.Context, tokenID, userAddress string) (bool, error)
	GetStats(ctx context.Context, tokenID string) (*models.ArtworkStats, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, slug string) error
	TagArtwork(ctx context.Context, slug, tokenID string) error
	UntagArtwork(ctx context.Context, slug, tokenID string) error
	ArtworkCategories(ctx context.Context, tokenID string) ([]string, error)
	SetArtworkCategories(ctx context.Context, tokenID string, slugs []string) error
	ViewTrend(ctx context.Context, tokenID string, days int) (*service.ViewTrend, error)
	TrendingArtworks(ctx context.Context, days, limit int) ([]string, error)
	RecentLikes(ctx context.Context, tokenID string, limit int) ([]*models.ArtworkLike, error)
}

// TxBuilder prepares unsigned contract transactions for wallets to sign.
type TxBuilder interface {
	RegisterArtistTx(name, bio, profileImageHash, socialLinks string) (*contract.TxPayload, error)
	UpdateArtistProfileTx(name, bio, profileImageHash, socialLinks string) (*contract.TxPayload, error)
	MintArtworkTx(params contract.MintArtworkParams) (*contract.TxPayload, error)
	PurchaseArtworkTx(tokenID, priceWei *big.Int) (*contract.TxPayload, error)
	UpdateArtworkListingTx(tokenID, newPriceWei *big.Int, isForSale bool) (*contract.TxPayload, error)
}

// Pinner exposes IPFS pinning and gateway resolution.
type Pinner interface {
	PinFile(ctx context.Context, filename string, content io.Reader, size int64, metadata map[string]string) (*ipfs.PinResult, error)
	PinJSON(ctx context.Context, name string, payload interface{}) (*ipfs.PinResult, error)
	GatewayURLs(hash string) []string
}

// PriceProvider exposes fiat quotes.
type PriceProvider interface {
	EthUSD(ctx context.Context) (*pricing.Quote, error)
}

// HealthReporter exposes RPC endpoint health for the health endpoint.
type HealthReporter interface {
	Health() *chain.ProviderHealth
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	feed       FeedProvider
	gallery    GalleryProvider
	engagement EngagementProvider
	txBuilder  TxBuilder
	pinner     Pinner
	pricing    PriceProvider
	rpcHealth  HealthReporter
	config     *ServerConfig
	logger     *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerIP   int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	feedProvider FeedProvider,
	gallery GalleryProvider,
	engagement EngagementProvider,
	txBuilder TxBuilder,
	pinner Pinner,
	priceProvider PriceProvider,
	rpcHealth HealthReporter,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		feed:       feedProvider,
		gallery:    gallery,
		engagement: engagement,
		txBuilder:  txBuilder,
		pinner:     pinner,
		pricing:    priceProvider,
		rpcHealth:  rpcHealth,
		config:     config,
		logger:     logging.GetGlobalLogger().WithField("component", "api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerIP)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter)) // Rate limiting after CORS
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Activity feed endpoints
	api.HandleFunc("/feed", s.handleGetFeed).Methods("GET")
	api.HandleFunc("/feed/refresh", s.handleRefreshFeed).Methods("POST")

	// Gallery endpoints
	api.HandleFunc("/gallery", s.handleGetGallery).Methods("GET")
	api.HandleFunc("/trending", s.handleTrending).Methods("GET")
	api.HandleFunc("/artworks/{id}", s.handleGetArtwork).Methods("GET")
	api.HandleFunc("/artworks/{id}/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/artworks/{id}/views", s.handleRecordView).Methods("POST")
	api.HandleFunc("/artworks/{id}/views", s.handleViewTrend).Methods("GET")
	api.HandleFunc("/artworks/{id}/likes", s.handleToggleLike).Methods("POST")
	api.HandleFunc("/artworks/{id}/likes", s.handleGetLiked).Methods("GET")
	api.HandleFunc("/artworks/{id}/likers", s.handleRecentLikes).Methods("GET")
	api.HandleFunc("/artworks/{id}/categories", s.handleArtworkCategories).Methods("GET")
	api.HandleFunc("/artworks/{id}/categories", s.handleTagArtwork).Methods("POST")
	api.HandleFunc("/artworks/{id}/categories", s.handleReplaceArtworkCategories).Methods("PUT")
	api.HandleFunc("/artworks/{id}/categories", s.handleUntagArtwork).Methods("DELETE")

	// Category endpoints
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/categories", s.handleCreateCategory).Methods("POST")
	api.HandleFunc("/categories/{slug}", s.handleGetCategory).Methods("GET")
	api.HandleFunc("/categories/{slug}", s.handleDeleteCategory).Methods("DELETE")

	// Artist endpoints
	api.HandleFunc("/artists", s.handleListArtists).Methods("GET")
	api.HandleFunc("/artists/{address}", s.handleGetArtist).Methods("GET")

	// Pricing endpoint
	api.HandleFunc("/price/eth", s.handleGetEthPrice).Methods("GET")

	// IPFS pinning endpoints
	api.HandleFunc("/ipfs/files", s.handlePinFile).Methods("POST")
	api.HandleFunc("/ipfs/metadata", s.handlePinMetadata).Methods("POST")
	api.HandleFunc("/ipfs/gateway/{hash}", s.handleGatewayURLs).Methods("GET")

	// Transaction payload endpoints
	api.HandleFunc("/tx/register", s.handleRegisterArtistTx).Methods("POST")
	api.HandleFunc("/tx/profile", s.handleUpdateProfileTx).Methods("POST")
	api.HandleFunc("/tx/mint", s.handleMintTx).Methods("POST")
	api.HandleFunc("/tx/purchase", s.handlePurchaseTx).Methods("POST")
	api.HandleFunc("/tx/listing", s.handleUpdateListingTx).Methods("POST")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "molotov-gallery",
	}
	if s.rpcHealth != nil {
		response["rpc"] = s.rpcHealth.Health()
	}
	respondJSON(w, http.StatusOK, response)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/common/logtrace"
	commonmiddleware "github.com/veristream/veristream-internal/internal/common/middleware"
	"github.com/veristream/veristream-internal/internal/marketsrv/apis"
	"github.com/veristream/veristream-internal/internal/marketsrv/auth"
	"github.com/veristream/veristream-internal/internal/marketsrv/catalog"
	"github.com/veristream/veristream-internal/internal/marketsrv/config"
	"github.com/veristream/veristream-internal/internal/marketsrv/ledger"
	"github.com/veristream/veristream-internal/internal/marketsrv/licensing"
	"github.com/veristream/veristream-internal/internal/marketsrv/reconcile"
	"github.com/veristream/veristream-internal/internal/marketsrv/registration"
	"github.com/veristream/veristream-internal/internal/marketsrv/storage"
	"github.com/veristream/veristream-internal/pkg/api"
)

const (
	serverVersion = "Veristream Market Server: 0.1.0"
	apiVersion    = "v1alpha1"
)

type MarketServer struct {
	Router   *chi.Mux
	handlers *apis.Handlers
	sweeper  *reconcile.Sweeper
}

// CreateNewServer wires the orchestrators from configuration: the content
// store, the ledger gateway behind the wallet bridge, and the catalog.
func CreateNewServer() (*MarketServer, error) {
	cfg := config.Config()

	var store storage.Store
	switch cfg.Storage.Mode {
	case "pin":
		store = storage.NewPinClient(cfg.Storage.PinEndpoint, cfg.Storage.PinAPIKey, cfg.Storage.PinSecret)
	case "", "memory":
		store = storage.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage mode: %s", cfg.Storage.Mode)
	}

	gateway := ledger.NewGatewayClient(cfg.Ledger.GatewayURL, cfg.Ledger.ContractAddress)
	signer := ledger.NewWalletBridgeSigner(cfg.Ledger.WalletBridgeURL)
	cat := catalog.New()

	walletTimeout := config.Duration(cfg.Ledger.WalletTimeout, 3*time.Minute)
	confirmTimeout := config.Duration(cfg.Ledger.ConfirmTimeout, 5*time.Minute)
	pollInterval := config.Duration(cfg.Ledger.PollInterval, 3*time.Second)

	s := &MarketServer{
		Router: chi.NewRouter(),
		handlers: &apis.Handlers{
			Registration: registration.New(cat, store, gateway, signer, registration.Options{
				AnchoringEnabled: cfg.Ledger.AnchoringEnabled,
				WalletTimeout:    walletTimeout,
				ConfirmTimeout:   confirmTimeout,
				PollInterval:     pollInterval,
			}),
			Licensing: licensing.New(cat, gateway, signer, licensing.Options{
				AnchoringEnabled: cfg.Ledger.AnchoringEnabled,
				WalletTimeout:    walletTimeout,
				ConfirmTimeout:   confirmTimeout,
				PollInterval:     pollInterval,
			}),
		},
	}
	if cfg.Reconcile.Enabled {
		s.sweeper = reconcile.NewSweeper(cat, gateway, config.Duration(cfg.Reconcile.Interval, 10*time.Minute))
	}
	return s, nil
}

func (s *MarketServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.Metrics)
	if config.Config().Server.HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{config.Config().Server.CORSOrigin},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		}))
	}
	s.Router.Mount("/auth", auth.Router(s.Router))
	s.Router.Mount("/", apis.Router(s.handlers))
	s.Router.Get("/version", s.getVersion)
	s.Router.Handle("/metrics", promhttp.Handler())

	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("unable to walk routes")
		}
	}
}

// StartReconciler launches the background sweep when enabled.
func (s *MarketServer) StartReconciler(ctx context.Context) {
	if s.sweeper != nil {
		s.sweeper.Start(ctx)
	}
}

// StopReconciler halts the background sweep.
func (s *MarketServer) StopReconciler() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
}

func (s *MarketServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.VersionRsp{
		ServerVersion: serverVersion,
		APIVersion:    apiVersion,
	}
	httpx.SendJsonRsp(w, http.StatusOK, rsp)
}

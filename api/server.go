// Package api exposes a farm over HTTP: read-only views of the rules, the
// supply, slots, prices and claim history, plus an optional development
// endpoint that mints without a signature.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/rules
//	GET  /v1/supply
//	GET  /v1/slots/{slot}
//	GET  /v1/slots/{slot}/price?unit=N
//	GET  /v1/slots/{slot}/claimable?account=0x..
//	GET  /v1/accounts/{account}/minted
//	POST /v1/slots/{slot}/mint          (DevMint only)
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-nftfarm/contracts/token"
	"github.com/rony4d/go-nftfarm/farm"
	"github.com/rony4d/go-nftfarm/farm/state"
	"github.com/rony4d/go-nftfarm/nftfarm"
)

// Farm is the part of the engine the API serves.
type Farm interface {
	Address() common.Address
	Owner() common.Address
	Rules() farm.Rules
	CurrentDistributedSupply() uint64
	Slot(slot uint64) state.Slot
	Price(slot, unitIndex uint64) (*big.Int, error)
	NextPrice(slot uint64) *big.Int
	CanClaim(slot uint64, account common.Address) error
	Minted(account common.Address) []nftfarm.MintedRow
	Mint(account common.Address, slot uint64) (*nftfarm.Receipt, error)
}

// Config tunes the HTTP server.
type Config struct {
	Addr         string
	DevMint      bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Log          logrus.FieldLogger
}

// Server serves a Farm over HTTP.
type Server struct {
	farm Farm
	cfg  Config
	log  logrus.FieldLogger
	http *http.Server
}

// New builds a server for f. Call ListenAndServe or use Handler directly.
func New(f Farm, cfg Config) *Server {
	s := &Server{farm: f, cfg: cfg, log: cfg.Log}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router with all middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.getRules)
		r.Get("/supply", s.getSupply)
		r.Route("/slots/{slot}", func(r chi.Router) {
			r.Get("/", s.getSlot)
			r.Get("/price", s.getPrice)
			r.Get("/claimable", s.getClaimable)
			if s.cfg.DevMint {
				r.Post("/mint", s.postMint)
			}
		})
		r.Get("/accounts/{account}/minted", s.getMinted)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"addr": ln.Addr().String(), "devmint": s.cfg.DevMint}).Info("HTTP API started")

	errc := make(chan error, 1)
	go func() { errc <- s.http.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.http.Shutdown(shutdownCtx)
		s.log.Info("HTTP API stopped")
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start),
			"reqid":   middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func (s *Server) getRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newRulesView(s.farm.Rules(), s.farm.Owner(), s.farm.Address()))
}

func (s *Server) getSupply(w http.ResponseWriter, _ *http.Request) {
	rules := s.farm.Rules()
	writeJSON(w, http.StatusOK, supplyView{
		Distributed: s.farm.CurrentDistributedSupply(),
		TotalSupply: rules.TotalSupply,
	})
}

func (s *Server) getSlot(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	rules := s.farm.Rules()
	writeJSON(w, http.StatusOK, newSlotView(s.farm.Slot(slot), rules, s.farm.NextPrice(slot)))
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	unit := s.farm.Slot(slot).Claimed
	if raw := r.URL.Query().Get("unit"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid unit "+strconv.Quote(raw))
			return
		}
		unit = v
	}
	price, err := s.farm.Price(slot, unit)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, priceView{Slot: slot, Unit: unit, Price: price.String()})
}

func (s *Server) getClaimable(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	account, ok := parseAccount(w, r.URL.Query().Get("account"))
	if !ok {
		return
	}
	view := claimableView{Slot: slot, Account: account, Claimable: true}
	if err := s.farm.CanClaim(slot, account); err != nil {
		view.Claimable = false
		view.Reason = err.Error()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) getMinted(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAccount(w, chi.URLParam(r, "account"))
	if !ok {
		return
	}
	rows := s.farm.Minted(account)
	out := make([]mintedView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newMintedView(row))
	}
	writeJSON(w, http.StatusOK, out)
}

type mintRequest struct {
	Account string `json:"account"`
}

func (s *Server) postMint(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var req mintRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	account, ok := parseAccount(w, req.Account)
	if !ok {
		return
	}

	rec, err := s.farm.Mint(account, slot)
	if err != nil && rec == nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	if err != nil {
		// the claim happened but was not persisted
		s.log.WithError(err).WithField("slot", slot).Error("Mint not persisted")
	}
	writeJSON(w, http.StatusOK, newReceiptView(rec))
}

// statusOf maps engine and token errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case nftfarm.IsRejection(err):
		return http.StatusConflict
	case errors.Is(err, token.ErrExceedsBalance):
		return http.StatusPaymentRequired
	case nftfarm.IsPrivilegeError(err):
		return http.StatusForbidden
	case errors.Is(err, nftfarm.ErrZeroAddress), errors.Is(err, nftfarm.ErrUnitTooLarge):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func slotParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "slot")
	slot, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot "+strconv.Quote(raw))
		return 0, false
	}
	return slot, true
}

func parseAccount(w http.ResponseWriter, raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid account "+strconv.Quote(raw))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorView{Error: msg})
}

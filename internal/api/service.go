// Package api provides the HTTP handlers of the dashboard: bet bookkeeping,
// statistics, reports, value picks and the admin surface.
//
// All monetary values use shopspring/decimal, never float64 for money.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/exposure"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/notify"
	"github.com/ddtips/dashboard/internal/quote"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/store"
)

// maxListLimit caps ?limit on bet listings.
const maxListLimit = 1000

// Reporter builds and delivers the periodic reports.
type Reporter interface {
	Generate(ctx context.Context, kind report.Kind, now time.Time) (report.Report, error)
	RunOnce(ctx context.Context, kind report.Kind, now time.Time) (report.Report, bool, error)
}

// QuoteSource returns the quote of the day.
type QuoteSource interface {
	Random(ctx context.Context) quote.Quote
}

// Options are the collaborators of a Service. Nil fields fall back to
// inert defaults: no limiter, no broadcasts, log-only notifications.
type Options struct {
	Capital  analytics.Capital
	Limiter  *exposure.Limiter
	Hub      *WSHub
	Reports  Reporter
	Notifier notify.Notifier
	Quotes   QuoteSource
	Location *time.Location
	Now      func() time.Time
}

// Service handles dashboard requests. Bet creation and profile
// registration are serialized so each check and its insert see the same
// stored state.
type Service struct {
	store    store.Store
	capital  analytics.Capital
	limiter  *exposure.Limiter
	wsHub    *WSHub
	reports  Reporter
	notifier notify.Notifier
	quotes   QuoteSource
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
	mu       sync.Mutex
}

// NewService creates a new dashboard service.
func NewService(st store.Store, opts Options) *Service {
	s := &Service{
		store:    st,
		capital:  opts.Capital,
		limiter:  opts.Limiter,
		wsHub:    opts.Hub,
		reports:  opts.Reports,
		notifier: opts.Notifier,
		quotes:   opts.Quotes,
		loc:      opts.Location,
		now:      opts.Now,
		validate: newValidator(),
	}
	if s.capital == nil {
		s.capital = analytics.DefaultCapital()
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.quotes == nil {
		s.quotes = quote.NewClient("")
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Routes mounts every endpoint under r. admin gates the admin-only routes.
func (s *Service) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}

	r.Route("/bets", func(r chi.Router) {
		r.Get("/", s.ListBets)
		r.Post("/", s.CreateBet)
		r.Get("/open", s.OpenBets)
		r.Get("/{betID}", s.GetBet)
		r.Patch("/{betID}/outcome", s.UpdateOutcome)
		r.Delete("/{betID}", s.DeleteBet)
	})

	r.Route("/stats", func(r chi.Router) {
		r.Get("/summary", s.Summary)
		r.Get("/breakdown", s.Breakdown)
		r.Get("/leaderboard", s.Leaderboard)
		r.Get("/timeseries", s.Timeseries)
		r.Get("/balances", s.Balances)
	})

	r.Get("/reports/{kind}", s.PreviewReport)
	r.Get("/predictions", s.Predictions)
	r.Get("/ddbot1", s.Predictions)
	r.Get("/quote", s.Quote)
	r.Post("/profiles", s.Register)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/reports/{kind}/send", s.SendReport)
		r.Post("/notify", s.Notify)
		r.Post("/admin/predictions", s.IngestPredictions)
		r.Get("/admin/profiles", s.ListProfiles)
		r.Patch("/admin/profiles/{profileID}", s.SetApproval)
		r.Delete("/admin/profiles/{profileID}", s.DeleteProfile)
	})
}

// newValidator teaches validator/v10 to compare decimals numerically and to
// check bet dates.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterValidation("betdate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) < len(model.DateLayout) {
			return false
		}
		_, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)])
		return err == nil
	})
	return v
}

// filterFromQuery reads the shared bet filter parameters.
func filterFromQuery(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	f := analytics.Filter{
		From:          q.Get("from"),
		To:            q.Get("to"),
		Sport:         q.Get("sport"),
		Tipster:       q.Get("tipster"),
		Sportsbook:    q.Get("sportsbook"),
		SessionTiming: model.SessionTiming(strings.ToUpper(q.Get("timing"))),
		PositionMode:  model.PositionMode(strings.ToUpper(q.Get("mode"))),
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return f, errors.New("from and to must be YYYY-MM-DD")
		}
	}
	if raw := q.Get("outcome"); raw != "" {
		o, ok := model.ParseOutcome(raw)
		if !ok {
			return f, errors.New("unknown outcome: " + raw)
		}
		f.Outcome = o
	}
	return f, nil
}

// queryInt reads a positive integer parameter, falling back to def.
func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// today is the current calendar day in the dashboard's time zone.
func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *Service) broadcast(kind string, betID string, b *model.Bet) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.Broadcast(WSMessage{Type: kind, BetID: betID, Bet: b})
}

func writeJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}

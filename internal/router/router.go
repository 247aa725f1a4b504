package router

import (
	"database/sql"
	"net/http"

	"pet-daycare-portal/internal/adapters/notify/lognotify"
	mem "pet-daycare-portal/internal/adapters/storage/memory"
	pg "pet-daycare-portal/internal/adapters/storage/postgres"
	"pet-daycare-portal/internal/domain/booking"
	"pet-daycare-portal/internal/domain/capacity"
	"pet-daycare-portal/internal/domain/credits"
	"pet-daycare-portal/internal/domain/schedule"
	"pet-daycare-portal/internal/middleware"
	"pet-daycare-portal/internal/observability/metrics"
	"pet-daycare-portal/internal/platform/config"
	"pet-daycare-portal/internal/platform/logger"
	"pet-daycare-portal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Config       config.Config
	Log          logger.Logger
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, decide por Config.DBDSN.
	DB *sql.DB

	// Opcional: métricas prometheus. nil => sin instrumentación.
	Metrics *metrics.BookingMetrics
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	var (
		capacityRepo capacity.Repository
		creditsRepo  credits.Repository
		bookingRepo  booking.Repository
		scheduleRepo schedule.Repository
	)

	// Si no te pasan DB explícita, intenta por DSN (para dev/handoff)
	db := opts.DB
	if db == nil && opts.Config.DBDSN != "" {
		opened, err := pg.Open(opts.Config.DBDSN)
		if err != nil {
			log.Error("postgres open failed, falling back to memory", map[string]any{"error": err.Error()})
		} else {
			db = opened
		}
	}

	if db != nil {
		capacityRepo = pg.NewCapacityRepo(db, opts.Config.DefaultMaxCapacity)
		creditsRepo = pg.NewCreditsRepo(db)
		bookingRepo = pg.NewBookingRepo(db)
		scheduleRepo = pg.NewScheduleRepo(db)
	} else {
		capacityRepo = mem.NewCapacityRepo(opts.Config.DefaultMaxCapacity)
		creditsRepo = mem.NewCreditsRepo()
		bookingRepo = mem.NewBookingRepo()
		scheduleRepo = mem.NewScheduleRepo()
	}

	// Services por módulo
	capacitySvc := capacity.NewService(capacityRepo, opts.Config.LowWaterRatio)
	creditsSvc := credits.NewService(creditsRepo, log)
	scheduleSvc := schedule.NewService(scheduleRepo)
	bookingSvc := booking.NewService(bookingRepo, capacitySvc, creditsSvc, booking.Options{
		Notifier: lognotify.New(log),
		Metrics:  opts.Metrics,
		Policy: booking.CancellationPolicy{
			CutoffDays:        opts.Config.CancelCutoffDays,
			LateRefundPercent: opts.Config.LateCancelRefundPercent,
		},
		LowCreditThreshold: opts.Config.LowCreditThreshold,
	})

	// Rutas por módulo
	capacity.RegisterRoutes(r, capacitySvc)
	credits.RegisterRoutes(r, creditsSvc)
	schedule.RegisterRoutes(r, scheduleSvc)
	booking.RegisterRoutes(r, bookingSvc)

	return r
}

package router

import (
	"context"
	"net/http"

	"apa-backoffice/docs"
	"apa-backoffice/internal/adapters/storage/docrepo"
	mem "apa-backoffice/internal/adapters/storage/memory"
	"apa-backoffice/internal/domain/dashboard"
	"apa-backoffice/internal/domain/flags"
	"apa-backoffice/internal/domain/identity"
	"apa-backoffice/internal/domain/leads"
	"apa-backoffice/internal/domain/lostpets"
	"apa-backoffice/internal/domain/media"
	"apa-backoffice/internal/domain/medical"
	"apa-backoffice/internal/domain/partners"
	"apa-backoffice/internal/domain/pets"
	"apa-backoffice/internal/domain/posts"
	"apa-backoffice/internal/domain/rescues"
	"apa-backoffice/internal/domain/workflow"
	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/platform/metrics"
	"apa-backoffice/internal/ports/auth"
	"apa-backoffice/internal/ports/docstore"
	mediaport "apa-backoffice/internal/ports/media"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa ese store (Postgres). Si no, in-memory.
	Store docstore.Store

	// Opcional: sin object store, POST /uploads responde 503.
	Media mediaport.ObjectStore

	Logger          logger.Logger
	Metrics         *metrics.Metrics
	BootstrapAdmins []string
}

// NewRouter arma servicios y rutas. Los flags se siguen en vivo hasta que ctx se cancele.
func NewRouter(ctx context.Context, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	store := opts.Store
	if store == nil {
		store = mem.NewStore()
	}

	hub := livequery.NewHub(livequery.WithLogger(log), livequery.WithObserver(m))
	bus := workflow.NewBus(log)
	m.ObserveTransitions(bus)

	// Services por módulo
	usersSvc := identity.NewService(docrepo.NewUsersRepo(store), hub, opts.BootstrapAdmins)
	flagsSvc := flags.NewService(docrepo.NewFlagsRepo(store), hub)
	petsSvc := pets.NewService(docrepo.NewPetsRepo(store), bus, hub)
	leadsSvc := leads.NewService(docrepo.NewLeadsRepo(store), petsSvc, bus, hub)
	lostSvc := lostpets.NewService(docrepo.NewLostPetsRepo(store), bus, hub)
	postsSvc := posts.NewService(docrepo.NewPostsRepo(store), hub)
	partnersSvc := partners.NewService(docrepo.NewPartnersRepo(store), hub)
	rescuesSvc := rescues.NewService(docrepo.NewRescuesRepo(store), bus, hub)
	medicalSvc := medical.NewService(docrepo.NewMedicalRepo(store), petsSvc, bus, hub)
	dashSvc := dashboard.NewService(petsSvc, leadsSvc, lostSvc, docrepo.NewResultsRepo(store), hub)
	mediaSvc := media.NewService(opts.Media)

	postsSvc.SubscribeSuccessStories(bus)

	holder := flags.NewHolder(log)
	go holder.Run(ctx, hub, flagsSvc.Query())

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.Actor(usersSvc))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName())))

	// Rutas por módulo
	identity.RegisterRoutes(r, usersSvc)
	flags.RegisterRoutes(r, flagsSvc, hub)
	pets.RegisterRoutes(r, petsSvc, hub, holder)
	leads.RegisterRoutes(r, leadsSvc, leads.Deps{Hub: hub, Flags: holder, Log: log})
	lostpets.RegisterRoutes(r, lostSvc, hub, holder)
	posts.RegisterRoutes(r, postsSvc, hub, holder)
	partners.RegisterRoutes(r, partnersSvc, hub, holder)
	rescues.RegisterRoutes(r, rescuesSvc, hub)
	medical.RegisterRoutes(r, medicalSvc, hub)
	dashboard.RegisterRoutes(r, dashSvc)
	media.RegisterRoutes(r, mediaSvc)

	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/application"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", handler.createCampaign)
			r.Get("/", handler.listCampaigns)
			r.Route("/{campaign_id}", func(r chi.Router) {
				r.Get("/", handler.getCampaign)
				r.Patch("/", handler.updateCampaign)
				r.Post("/status", handler.changeCampaignStatus)
				r.Get("/counts", handler.campaignCounts)
				r.Route("/relationships", func(r chi.Router) {
					r.Post("/", handler.createRelationship)
					r.Get("/", handler.listCampaignRelationships)
					r.Get("/{influencer_id}", handler.getRelationship)
					r.Post("/{influencer_id}/transition", handler.transitionRelationship)
				})
			})
		})

		r.Get("/dashboard/counts", handler.dashboardCounts)
		r.Get("/influencers/me/relationships", handler.listMyRelationships)

		r.Route("/search/sessions", func(r chi.Router) {
			r.Post("/", handler.createSearchSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", handler.getSearchSession)
				r.Put("/query", handler.submitSearch)
				r.Post("/search-now", handler.searchNow)
				r.Delete("/", handler.closeSearchSession)
			})
		})
	})
	return r
}

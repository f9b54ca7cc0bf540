package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.NotFound(app.notFound)
	mux.MethodNotAllowed(app.methodNotAllowed)

	mux.Use(app.traceID)
	mux.Use(app.logAccess)
	mux.Use(app.recoverPanic)
	mux.Use(app.metrics)

	mux.Use(app.CORS)

	mux.Get("/api/v1/status", app.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api/v1/auth", func(mux chi.Router) {
		mux.Post("/login", app.handleLogin)
		mux.With(app.limitOTPRequests).Post("/send-otp", app.handleSendOTP)
		mux.Post("/verify-otp", app.handleVerifyOTP)
		mux.Post("/change-password", app.handleChangePassword)
	})

	mux.Route("/api/v1/drivers", func(mux chi.Router) {
		mux.Get("/", app.handleFindDrivers)
		mux.Post("/", app.handleAddDriver)
		mux.Get("/generate-driver-id", app.handleGenerateDriverID)
		mux.Get("/{driverId}", app.handleGetDriver)
		mux.With(app.requireAuth).Put("/{driverId}", app.handleUpdateDriver)
		mux.With(app.requireAuth).Delete("/{driverId}", app.handleDeleteDriver)
		mux.Post("/{driverId}/profile-pic", app.handleUploadProfilePic)
	})

	mux.Route("/api/v1/duty-slips", func(mux chi.Router) {
		mux.Get("/history/completed", app.handleDutySlipHistory)
		mux.Post("/", app.handleAddDutySlip)
		mux.Get("/{id}", app.handleGetDutySlip)
		mux.Put("/{id}", app.handleUpdateDutySlip)
		mux.Post("/{id}/complete", app.handleCompleteDutySlip)
		mux.Post("/{id}/image", app.handleUploadDutySlipImage)
	})

	mux.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.blobs.Root()))))

	app.logger.Debug("routes configured", "routes", chiRoutesToStrings(mux.Routes()))

	return mux
}

func chiRoutesToStrings(routes []chi.Route) []string {
	parsedRoutes := make([]string, 0, len(routes))
	for _, route := range routes {
		parsedRoutes = append(parsedRoutes, route.Pattern)
	}
	return parsedRoutes
}

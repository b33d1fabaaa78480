package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)

	mux := pat.New()

	// Listings
	mux.Post("/listing", standardMiddleware.ThenFunc(app.listingHandler.PublishListing))
	mux.Post("/listing/:id/republish", standardMiddleware.ThenFunc(app.listingHandler.RepublishListing))
	mux.Post("/listing/expire_overdue", standardMiddleware.ThenFunc(app.listingHandler.ExpireOverdue))

	// Deals
	mux.Post("/deal/contact", standardMiddleware.ThenFunc(app.dealHandler.PurchaseContact))
	mux.Post("/deal/:id/confirm", standardMiddleware.ThenFunc(app.dealHandler.ConfirmDeal))
	mux.Get("/deal/pending", standardMiddleware.ThenFunc(app.dealHandler.PendingConfirmations))

	// Points
	mux.Get("/points/:user_id/balance", standardMiddleware.ThenFunc(app.pointsHandler.GetBalance))
	mux.Get("/points/:user_id/history", standardMiddleware.ThenFunc(app.pointsHandler.GetHistory))
	mux.Post("/recharge", standardMiddleware.ThenFunc(app.pointsHandler.RequestRecharge))
	mux.Post("/recharge/:id/approve", standardMiddleware.ThenFunc(app.pointsHandler.ApproveRecharge))
	mux.Post("/recharge/:id/reject", standardMiddleware.ThenFunc(app.pointsHandler.RejectRecharge))
	mux.Get("/recharge/pending", standardMiddleware.ThenFunc(app.pointsHandler.PendingRecharges))

	// Search
	mux.Get("/search", standardMiddleware.ThenFunc(app.searchHandler.Search))
	mux.Get("/search/suggestions", standardMiddleware.ThenFunc(app.searchHandler.Suggestions))
	mux.Get("/search/history/:user_id", standardMiddleware.ThenFunc(app.searchHandler.History))
	mux.Del("/search/history/:user_id", standardMiddleware.ThenFunc(app.searchHandler.ClearHistory))

	return mux
}

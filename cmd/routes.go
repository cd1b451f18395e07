package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddleware)

	mux := pat.New()

	// Requests. The nearby route is registered before /requests/:id so pat
	// does not swallow "nearby" as an id.
	mux.Get("/requests/nearby", standardMiddleware.ThenFunc(app.requestHandler.GetNearbyRequests))
	mux.Get("/requests", standardMiddleware.ThenFunc(app.requestHandler.GetActiveRequests))
	mux.Post("/requests", authMiddleware.ThenFunc(app.requestHandler.CreateRequest))
	mux.Get("/requests/:id", standardMiddleware.ThenFunc(app.requestHandler.GetRequestByID))
	mux.Put("/requests/:id", authMiddleware.ThenFunc(app.requestHandler.UpdateRequest))
	mux.Del("/requests/:id", authMiddleware.ThenFunc(app.requestHandler.DeleteRequest))

	// Offers
	mux.Post("/requests/:requestId/offers", authMiddleware.ThenFunc(app.offerHandler.CreateOffer))
	mux.Get("/requests/:requestId/offers", standardMiddleware.ThenFunc(app.offerHandler.ListOffers))
	mux.Put("/offers/:offerId", authMiddleware.ThenFunc(app.offerHandler.RespondToOffer))

	// Messages
	mux.Post("/messages", authMiddleware.ThenFunc(app.messageHandler.SendMessage))
	mux.Get("/requests/:requestId/messages", authMiddleware.ThenFunc(app.messageHandler.GetConversation))

	// Notifications
	mux.Get("/notifications", authMiddleware.ThenFunc(app.notificationHandler.ListNotifications))
	mux.Put("/notifications/read", authMiddleware.ThenFunc(app.notificationHandler.MarkAllRead))
	mux.Put("/notifications/:id/read", authMiddleware.ThenFunc(app.notificationHandler.MarkRead))

	// Sessions
	if app.authHandler != nil {
		mux.Post("/auth/refresh", standardMiddleware.ThenFunc(app.authHandler.RefreshSession))
	}

	// Device tokens for mobile push
	if app.fcmHandler != nil {
		mux.Post("/notify-tokens", authMiddleware.ThenFunc(app.fcmHandler.RegisterToken))
		mux.Del("/notify-tokens/:token", authMiddleware.ThenFunc(app.fcmHandler.DeleteToken))
	}

	// Realtime gateway; authenticates via token query param inside the
	// handler because browsers cannot set headers on websocket dials.
	mux.Get("/ws", standardMiddleware.ThenFunc(app.serveWS))

	return mux
}

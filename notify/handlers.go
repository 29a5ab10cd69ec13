package notify

import (
	"errors"
	"log"
	"net/http"

	"villas/middleware"
	"villas/utils"

	"github.com/julienschmidt/httprouter"
)

// GET /api/notifications
func ListHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, svc.Store.Snapshot())
	}
}

// GET /api/notifications/status
func StatusHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		resp := utils.M{
			"state":       Disconnected.String(),
			"attempts":    0,
			"unreadCount": svc.Store.UnreadCount(),
		}
		if svc.Channel != nil {
			resp["state"] = svc.Channel.State().String()
			resp["attempts"] = svc.Channel.Attempts()
		}
		utils.RespondWithJSON(w, http.StatusOK, resp)
	}
}

// POST /api/notifications/:id/read
func MarkReadHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		err := svc.MarkRead(r.Context(), id)
		if err == nil {
			log.Printf("notification %s read by %s", id, middleware.UserID(r))
		}
		switch {
		case errors.Is(err, ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case err != nil:
			utils.RespondWithError(w, http.StatusBadGateway, err.Error())
		default:
			n, _ := svc.Store.Get(id)
			utils.RespondWithJSON(w, http.StatusOK, utils.M{
				"ok":           true,
				"notification": n,
				"unreadCount":  svc.Store.UnreadCount(),
			})
		}
	}
}

// PUT /api/notifications/read
func MarkAllReadHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := svc.MarkAllRead(r.Context()); err != nil {
			utils.RespondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		log.Printf("all notifications read by %s", middleware.UserID(r))
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "unreadCount": svc.Store.UnreadCount()})
	}
}

// DELETE /api/notifications/:id
func RemoveHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if err := svc.Remove(r.Context(), id); err != nil {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("notification %s removed by %s", id, middleware.UserID(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

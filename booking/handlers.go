package booking

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"villas/utils"

	"github.com/julienschmidt/httprouter"
)

// periodFromQuery reads month/year, defaulting to the current month.
func periodFromQuery(r *http.Request) (int, int, error) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()

	q := r.URL.Query()
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, ErrBadPeriod
		}
		month = m
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, ErrBadPeriod
		}
		year = y
	}
	return month, year, ValidatePeriod(month, year)
}

func propertyIDParam(ps httprouter.Params) (int, error) {
	id, err := strconv.Atoi(ps.ByName("propertyId"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid property id")
	}
	return id, nil
}

// GET /api/availability?month=&year=&refresh=1
func IndexHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		month, year, err := periodFromQuery(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap, err := svc.Ensure(r.Context(), month, year, r.URL.Query().Get("refresh") == "1")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, snap.View())
	}
}

// GET /api/properties/:propertyId/availability?month=&year=
func PropertyHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		propertyID, err := propertyIDParam(ps)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		month, year, err := periodFromQuery(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap, err := svc.Ensure(r.Context(), month, year, false)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp := utils.M{
			"propertyId": propertyID,
			"month":      month,
			"year":       year,
			"bookedDays": snap.Lookup(Key{PropertyID: propertyID, Year: year, Month: month}).Sorted(),
		}
		if snap.Message != "" {
			resp["message"] = snap.Message
		}
		utils.RespondWithJSON(w, http.StatusOK, resp)
	}
}

// GET /api/properties/:propertyId/availability/pdf?month=&year=
func PDFHandler(svc *Service, siteURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		propertyID, err := propertyIDParam(ps)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		month, year, err := periodFromQuery(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap, err := svc.Ensure(r.Context(), month, year, false)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		pdf, err := RenderMonthPDF(snap, propertyID, siteURL)
		if err != nil {
			log.Printf("❌ availability pdf for %d: %v", propertyID, err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}

		filename := "availability-" + strconv.Itoa(propertyID) + "-" + periodKey(month, year) + ".pdf"
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}

// GET /api/availability/ws?month=&year=
func WatchHandler(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		month, year, err := periodFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("availability ws upgrade:", err)
			return
		}
		svc.watchers.serve(periodKey(month, year), conn)
	}
}

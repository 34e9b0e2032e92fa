package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/vaccine-scheduler/internal/scheduling"
)

// ScheduleProvider is the read-only slice of the scheduling service the
// HTTP surface needs.
type ScheduleProvider interface {
	Schedule(ctx context.Context, day time.Time) (*scheduling.DaySchedule, error)
	Vaccines(ctx context.Context) ([]scheduling.Vaccine, error)
}

func getScheduleHandler(svc ScheduleProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateStr := chi.URLParam(r, "date")
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
			return
		}

		schedule, err := svc.Schedule(r.Context(), day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := ScheduleResponse{
			Day:        schedule.Day.Format("2006-01-02"),
			Caregivers: schedule.Caregivers,
			Vaccines:   toVaccineResponses(schedule.Vaccines),
		}
		if resp.Caregivers == nil {
			resp.Caregivers = []string{}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listVaccinesHandler(svc ScheduleProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaccines, err := svc.Vaccines(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toVaccineResponses(vaccines))
	}
}

func toVaccineResponses(vaccines []scheduling.Vaccine) []VaccineResponse {
	resp := make([]VaccineResponse, 0, len(vaccines))
	for _, v := range vaccines {
		resp = append(resp, VaccineResponse{
			Name:           v.Name,
			AvailableDoses: v.AvailableDoses,
		})
	}
	return resp
}

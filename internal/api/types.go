package api

type VaccineResponse struct {
	Name           string `json:"name"`
	AvailableDoses int    `json:"available_doses"`
}

type ScheduleResponse struct {
	Day        string            `json:"day"`
	Caregivers []string          `json:"caregivers"`
	Vaccines   []VaccineResponse `json:"vaccines"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

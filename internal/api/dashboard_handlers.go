package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AdSnap-Studio/adsnap/internal/auth"
	"github.com/AdSnap-Studio/adsnap/internal/database"
)

func (api *Api) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := database.ListRecentActivities(identity.Account.ID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (api *Api) StatsHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	counters, err := database.GetCounters(identity.Account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, counters)
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (api *Api) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := database.CreateProject(identity.Account.ID, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	api.tracker.TrackProjectCreation(identity.Account.ID, project.Name)
	writeJSON(w, http.StatusCreated, project)
}

func (api *Api) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	projects, err := database.ListProjects(identity.Account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

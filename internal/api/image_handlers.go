package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AdSnap-Studio/adsnap/internal/auth"
	"github.com/AdSnap-Studio/adsnap/internal/bria"
	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/models"
)

type generateImageRequest struct {
	Prompt      string  `json:"prompt"`
	NumResults  int     `json:"num_results"`
	AspectRatio string  `json:"aspect_ratio"`
	Seed        int64   `json:"seed"`
	Steps       int     `json:"steps"`
	Guidance    float64 `json:"guidance"`
	Medium      string  `json:"medium"`
	Enhance     bool    `json:"enhance"`
	ProjectID   *int64  `json:"project_id"`
}

func (api *Api) GenerateImageHandler(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	urls, err := api.engine.GenerateHDImage(r.Context(), req.Prompt, bria.GenerateOptions{
		NumResults:  req.NumResults,
		AspectRatio: req.AspectRatio,
		Seed:        req.Seed,
		Steps:       req.Steps,
		Guidance:    req.Guidance,
		Medium:      req.Medium,
		EnhanceIMG:  req.Enhance,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{}
	if req.AspectRatio != "" {
		settings["aspect_ratio"] = req.AspectRatio
	}
	if req.Seed != 0 {
		settings["seed"] = req.Seed
	}
	if req.Medium != "" {
		settings["medium"] = req.Medium
	}

	api.completeImageOperation(w, r, models.ImageHDGeneration, req.Prompt, req.ProjectID, settings, urls)
}

type packshotRequest struct {
	ImageURL        string `json:"image_url"`
	BackgroundColor string `json:"background_color"`
	ForceRemoveBG   bool   `json:"force_remove_background"`
	ProjectID       *int64 `json:"project_id"`
}

func (api *Api) PackshotHandler(w http.ResponseWriter, r *http.Request) {
	var req packshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}

	urls, err := api.engine.CreatePackshot(r.Context(), req.ImageURL, req.BackgroundColor, req.ForceRemoveBG)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{"source_url": req.ImageURL}
	if req.BackgroundColor != "" {
		settings["background_color"] = req.BackgroundColor
	}
	api.completeImageOperation(w, r, models.ImagePackshot, "", req.ProjectID, settings, urls)
}

type shadowRequest struct {
	ImageURL        string `json:"image_url"`
	Type            string `json:"type"`
	BackgroundColor string `json:"background_color"`
	Intensity       int    `json:"intensity"`
	Blur            int    `json:"blur"`
	ProjectID       *int64 `json:"project_id"`
}

func (api *Api) ShadowHandler(w http.ResponseWriter, r *http.Request) {
	var req shadowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}

	urls, err := api.engine.AddShadow(r.Context(), req.ImageURL, bria.ShadowOptions{
		Type:            req.Type,
		BackgroundColor: req.BackgroundColor,
		Intensity:       req.Intensity,
		Blur:            req.Blur,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{"source_url": req.ImageURL}
	if req.Type != "" {
		settings["shadow_type"] = req.Type
	}
	api.completeImageOperation(w, r, models.ImageShadow, "", req.ProjectID, settings, urls)
}

type generativeFillRequest struct {
	Image     string `json:"image"`
	Mask      string `json:"mask"`
	Prompt    string `json:"prompt"`
	ProjectID *int64 `json:"project_id"`
}

func (api *Api) GenerativeFillHandler(w http.ResponseWriter, r *http.Request) {
	var req generativeFillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" || req.Mask == "" {
		writeError(w, http.StatusBadRequest, "image and mask are required")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	urls, err := api.engine.GenerativeFill(r.Context(), req.Image, req.Mask, req.Prompt)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	api.completeImageOperation(w, r, models.ImageFill, req.Prompt, req.ProjectID, nil, urls)
}

type eraseRequest struct {
	ImageURL  string `json:"image_url"`
	ProjectID *int64 `json:"project_id"`
}

func (api *Api) EraseForegroundHandler(w http.ResponseWriter, r *http.Request) {
	var req eraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}

	urls, err := api.engine.EraseForeground(r.Context(), req.ImageURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{"source_url": req.ImageURL}
	api.completeImageOperation(w, r, models.ImageErase, "", req.ProjectID, settings, urls)
}

type lifestyleTextRequest struct {
	ImageURL         string `json:"image_url"`
	SceneDescription string `json:"scene_description"`
	Placement        string `json:"placement"`
	NumResults       int    `json:"num_results"`
	ProjectID        *int64 `json:"project_id"`
}

func (api *Api) LifestyleByTextHandler(w http.ResponseWriter, r *http.Request) {
	var req lifestyleTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURL == "" || req.SceneDescription == "" {
		writeError(w, http.StatusBadRequest, "image_url and scene_description are required")
		return
	}

	urls, err := api.engine.LifestyleShotByText(r.Context(), req.ImageURL, req.SceneDescription, bria.LifestyleOptions{
		Placement:  req.Placement,
		NumResults: req.NumResults,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{
		"source_url": req.ImageURL,
		"scene":      req.SceneDescription,
	}
	api.completeImageOperation(w, r, models.ImageLifestyleText, req.SceneDescription, req.ProjectID, settings, urls)
}

type lifestyleImageRequest struct {
	ImageURL     string `json:"image_url"`
	ReferenceURL string `json:"reference_url"`
	Placement    string `json:"placement"`
	NumResults   int    `json:"num_results"`
	ProjectID    *int64 `json:"project_id"`
}

func (api *Api) LifestyleByImageHandler(w http.ResponseWriter, r *http.Request) {
	var req lifestyleImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURL == "" || req.ReferenceURL == "" {
		writeError(w, http.StatusBadRequest, "image_url and reference_url are required")
		return
	}

	urls, err := api.engine.LifestyleShotByImage(r.Context(), req.ImageURL, req.ReferenceURL, bria.LifestyleOptions{
		Placement:  req.Placement,
		NumResults: req.NumResults,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	settings := map[string]interface{}{
		"source_url":    req.ImageURL,
		"reference_url": req.ReferenceURL,
	}
	api.completeImageOperation(w, r, models.ImageLifestyle, "", req.ProjectID, settings, urls)
}

func (api *Api) EnhancePromptHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	enhanced, err := api.engine.EnhancePrompt(r.Context(), req.Prompt)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	api.tracker.TrackFeatureUsage(identity.Account.ID, "prompt_enhancement", nil)
	writeJSON(w, http.StatusOK, map[string]string{"prompt": enhanced})
}

// completeImageOperation persists the produced images, records the activity
// with its counter, archives the copies when object storage is configured,
// and answers with the saved records.
func (api *Api) completeImageOperation(w http.ResponseWriter, r *http.Request, kind models.ImageKind, prompt string, projectID *int64, settings map[string]interface{}, urls []string) {
	identity := auth.IdentityFromContext(r.Context())

	records := make([]*models.ImageRecord, 0, len(urls))
	for _, url := range urls {
		record := &models.ImageRecord{
			AccountID: identity.Account.ID,
			ProjectID: projectID,
			URL:       url,
			Kind:      kind,
			Prompt:    prompt,
			Settings:  settings,
		}
		if err := database.SaveImageRecord(record); err != nil {
			log.Printf("Error saving image record for %s: %v", identity.Account.Handle, err)
			continue
		}

		if api.archive != nil {
			if key, err := api.archive.ArchiveImage(r.Context(), identity.Account.AccountUUID, record.ID, url); err != nil {
				log.Printf("Error archiving image %s: %v", record.ID, err)
			} else {
				record.ArchiveKey = &key
				if err := database.SetImageArchiveKey(record.ID, key); err != nil {
					log.Printf("Error saving archive key for image %s: %v", record.ID, err)
				}
			}
		}

		records = append(records, record)
	}

	api.tracker.TrackImageOperation(identity.Account.ID, kind, prompt)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"urls":   urls,
		"images": records,
	})
}

func (api *Api) RecentImagesHandler(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	images, err := database.ListRecentImages(identity.Account.ID, 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, images)
}

// ImageDownloadHandler answers with a presigned URL for an archived image.
func (api *Api) ImageDownloadHandler(w http.ResponseWriter, r *http.Request) {
	if api.archive == nil {
		writeError(w, http.StatusNotFound, "image archive is not configured")
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	imageID := chi.URLParam(r, "imageID")

	record, err := database.GetImageRecord(imageID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if record.AccountID != identity.Account.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if record.ArchiveKey == nil {
		writeError(w, http.StatusNotFound, "image has no archived copy")
		return
	}

	url, err := api.archive.PresignedURL(r.Context(), *record.ArchiveKey, 24*time.Hour)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

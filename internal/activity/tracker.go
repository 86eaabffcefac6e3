package activity

import (
	"log"

	"github.com/AdSnap-Studio/adsnap/internal/database"
	"github.com/AdSnap-Studio/adsnap/internal/models"
)

// Tracker records account activity and keeps the usage counters in step.
// Tracking is best-effort: a failed write is logged and swallowed so it
// never breaks the operation being tracked.
type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

// TrackLogin records a successful authentication.
func (t *Tracker) TrackLogin(accountID int64, handle string) {
	entry := &models.ActivityEntry{
		AccountID:   accountID,
		Category:    models.ActivityAuthentication,
		Description: "login",
		Details:     map[string]interface{}{"handle": handle},
	}
	if err := database.InsertActivity(entry); err != nil {
		log.Printf("[ACTIVITY] Failed to record login for %s: %v", handle, err)
	}
}

// TrackImageOperation records a produced image and bumps the matching
// counter in the same transaction as the activity entry.
func (t *Tracker) TrackImageOperation(accountID int64, kind models.ImageKind, prompt string) {
	counter := models.CounterImagesEdited
	category := models.ActivityImageEditing
	if kind.CountsAsGeneration() {
		counter = models.CounterImagesGenerated
		category = models.ActivityImageGeneration
	}

	details := map[string]interface{}{"kind": string(kind)}
	if prompt != "" {
		details["prompt"] = prompt
	}

	entry := &models.ActivityEntry{
		AccountID:   accountID,
		Category:    category,
		Description: string(kind),
		Details:     details,
	}
	if err := database.InsertActivityWithCounter(entry, counter, 1); err != nil {
		log.Printf("[ACTIVITY] Failed to record %s for account %d: %v", kind, accountID, err)
		return
	}

	if err := database.RecomputeFavoriteFeature(accountID); err != nil {
		log.Printf("[ACTIVITY] Failed to recompute favorite feature for account %d: %v", accountID, err)
	}
}

// TrackProjectCreation records a new project. The project counter itself is
// incremented by the store when the project row is created.
func (t *Tracker) TrackProjectCreation(accountID int64, projectName string) {
	entry := &models.ActivityEntry{
		AccountID:   accountID,
		Category:    models.ActivityProjectManagement,
		Description: "create_project",
		Details:     map[string]interface{}{"name": projectName},
	}
	if err := database.InsertActivity(entry); err != nil {
		log.Printf("[ACTIVITY] Failed to record project creation for account %d: %v", accountID, err)
	}
}

// TrackFeatureUsage records use of a feature that does not produce an image,
// such as prompt enhancement.
func (t *Tracker) TrackFeatureUsage(accountID int64, feature string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["feature"] = feature

	entry := &models.ActivityEntry{
		AccountID:   accountID,
		Category:    models.ActivityFeatureUsage,
		Description: feature,
		Details:     details,
	}
	if err := database.InsertActivity(entry); err != nil {
		log.Printf("[ACTIVITY] Failed to record feature usage for account %d: %v", accountID, err)
	}
}

package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/AdSnap-Studio/adsnap/internal/config"
	"github.com/AdSnap-Studio/adsnap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// DatabaseTestSuite defines the test suite
type DatabaseTestSuite struct {
	suite.Suite
}

// SetupTest initializes a fresh database for each test
func (s *DatabaseTestSuite) SetupTest() {
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(s.T().TempDir(), "adsnap_test.db")

	err := Init(cfg)
	assert.NoError(s.T(), err, "Database initialization should succeed")
}

// TearDownTest closes the database after each test
func (s *DatabaseTestSuite) TearDownTest() {
	Close()
}

// TestDatabaseTestSuite runs the test suite
func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) TestCreateAndGetAccount() {
	account, err := CreateAccount("alice", "alice@example.com", "hash", "Alice Example")
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), account)
	assert.NotZero(s.T(), account.ID)
	assert.NotEmpty(s.T(), account.AccountUUID)
	assert.True(s.T(), account.IsActive)

	byHandle, err := GetAccountByHandle("alice")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), account.ID, byHandle.ID)

	byEmail, err := GetAccountByEmail("alice@example.com")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), account.ID, byEmail.ID)

	byID, err := GetAccountByID(account.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", byID.Handle)

	// Counters row is created alongside the account, zeroed
	counters, err := GetCounters(account.ID)
	assert.NoError(s.T(), err)
	assert.Zero(s.T(), counters.ImagesGenerated)
	assert.Zero(s.T(), counters.ImagesEdited)
	assert.Zero(s.T(), counters.Projects)
	assert.Zero(s.T(), counters.SessionMinutes)
}

func (s *DatabaseTestSuite) TestDuplicateHandleAndEmail() {
	_, err := CreateAccount("bob", "bob@example.com", "hash", "")
	assert.NoError(s.T(), err)

	_, err = CreateAccount("bob", "other@example.com", "hash", "")
	assert.ErrorIs(s.T(), err, ErrDuplicateHandle)

	_, err = CreateAccount("bobby", "bob@example.com", "hash", "")
	assert.ErrorIs(s.T(), err, ErrDuplicateEmail)
}

func (s *DatabaseTestSuite) TestGetAccountNotFound() {
	account, err := GetAccountByHandle("nobody")
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), account)

	account, err = GetAccountByEmail("nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), account)
}

func (s *DatabaseTestSuite) TestUpdateProfile() {
	account, _ := CreateAccount("carol", "carol@example.com", "hash", "Carol")
	other, _ := CreateAccount("dave", "dave@example.com", "hash", "Dave")

	err := UpdateProfile(account.ID, "Carol Updated", "carol2@example.com")
	assert.NoError(s.T(), err)

	updated, err := GetAccountByID(account.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Carol Updated", updated.FullName)
	assert.Equal(s.T(), "carol2@example.com", updated.Email)

	// Taking another account's email is a duplicate
	err = UpdateProfile(account.ID, "Carol", "dave@example.com")
	assert.ErrorIs(s.T(), err, ErrDuplicateEmail)

	// Unknown account
	err = UpdateProfile(other.ID+1000, "Nobody", "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestUpdateLastLogin() {
	account, _ := CreateAccount("erin", "erin@example.com", "hash", "")
	assert.Nil(s.T(), account.LastLogin)

	err := UpdateLastLogin(account.ID)
	assert.NoError(s.T(), err)

	updated, _ := GetAccountByID(account.ID)
	assert.NotNil(s.T(), updated.LastLogin)
}

func (s *DatabaseTestSuite) TestSetAccountActive() {
	account, _ := CreateAccount("frank", "frank@example.com", "hash", "")

	err := SetAccountActive(account.ID, false)
	assert.NoError(s.T(), err)

	updated, _ := GetAccountByID(account.ID)
	assert.False(s.T(), updated.IsActive)
}

func (s *DatabaseTestSuite) TestCreateAndGetSession() {
	account, _ := CreateAccount("grace", "grace@example.com", "hash", "")

	expiresAt := time.Now().Add(24 * time.Hour)
	session, err := CreateSession(account.ID, "session-token", expiresAt)
	assert.NoError(s.T(), err)
	assert.NotEmpty(s.T(), session.ID)

	retrieved, err := GetSessionByToken("session-token")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), session.ID, retrieved.ID)
	assert.Equal(s.T(), account.ID, retrieved.AccountID)
}

func (s *DatabaseTestSuite) TestExpiredSessionIsRejected() {
	account, _ := CreateAccount("heidi", "heidi@example.com", "hash", "")

	CreateSession(account.ID, "expired-token", time.Now().Add(-1*time.Hour))

	session, err := GetSessionByToken("expired-token")
	assert.ErrorIs(s.T(), err, ErrSessionExpired)
	assert.Nil(s.T(), session)

	// The expired row is dropped on sight
	session, err = GetSessionByToken("expired-token")
	assert.ErrorIs(s.T(), err, ErrSessionNotFound)
	assert.Nil(s.T(), session)
}

func (s *DatabaseTestSuite) TestDeleteSession() {
	account, _ := CreateAccount("ivan", "ivan@example.com", "hash", "")
	CreateSession(account.ID, "session-to-delete", time.Now().Add(1*time.Hour))

	err := DeleteSession("session-to-delete")
	assert.NoError(s.T(), err)

	_, err = GetSessionByToken("session-to-delete")
	assert.ErrorIs(s.T(), err, ErrSessionNotFound)

	err = DeleteSession("session-to-delete")
	assert.ErrorIs(s.T(), err, ErrSessionNotFound)
}

func (s *DatabaseTestSuite) TestCleanupExpiredSessions() {
	account, _ := CreateAccount("judy", "judy@example.com", "hash", "")
	CreateSession(account.ID, "stale", time.Now().Add(-1*time.Hour))
	CreateSession(account.ID, "fresh", time.Now().Add(1*time.Hour))

	err := CleanupExpiredSessions()
	assert.NoError(s.T(), err)

	_, err = GetSessionByToken("stale")
	assert.ErrorIs(s.T(), err, ErrSessionNotFound)

	fresh, err := GetSessionByToken("fresh")
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), fresh)
}

func (s *DatabaseTestSuite) TestActivityWithCounter() {
	account, _ := CreateAccount("kate", "kate@example.com", "hash", "")

	// N tracked operations move the counter by exactly N
	for i := 0; i < 5; i++ {
		entry := &models.ActivityEntry{
			AccountID:   account.ID,
			Category:    models.ActivityImageGeneration,
			Description: "hd_generation",
			Details:     map[string]interface{}{"index": i},
		}
		err := InsertActivityWithCounter(entry, models.CounterImagesGenerated, 1)
		assert.NoError(s.T(), err)
	}

	counters, err := GetCounters(account.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), counters.ImagesGenerated)
	assert.Zero(s.T(), counters.ImagesEdited)

	entries, err := ListRecentActivities(account.ID, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), entries, 5)
}

func (s *DatabaseTestSuite) TestActivityOrderingNewestFirst() {
	account, _ := CreateAccount("liam", "liam@example.com", "hash", "")

	for _, desc := range []string{"first", "second", "third"} {
		entry := &models.ActivityEntry{
			AccountID:   account.ID,
			Category:    models.ActivityFeatureUsage,
			Description: desc,
		}
		assert.NoError(s.T(), InsertActivity(entry))
	}

	entries, err := ListRecentActivities(account.ID, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), entries, 3)
	assert.Equal(s.T(), "third", entries[0].Description)
	assert.Equal(s.T(), "first", entries[2].Description)

	// A limit of one yields exactly the most recent entry
	latest, err := ListRecentActivities(account.ID, 1)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), latest, 1)
	assert.Equal(s.T(), "third", latest[0].Description)
}

func (s *DatabaseTestSuite) TestActivityIsolationBetweenAccounts() {
	a, _ := CreateAccount("mallory", "mallory@example.com", "hash", "")
	b, _ := CreateAccount("nina", "nina@example.com", "hash", "")

	InsertActivity(&models.ActivityEntry{AccountID: a.ID, Category: models.ActivityAuthentication, Description: "login"})
	InsertActivity(&models.ActivityEntry{AccountID: b.ID, Category: models.ActivityAuthentication, Description: "login"})
	InsertActivity(&models.ActivityEntry{AccountID: b.ID, Category: models.ActivityImageEditing, Description: "packshot"})

	aEntries, err := ListRecentActivities(a.ID, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), aEntries, 1)

	bEntries, err := ListRecentActivities(b.ID, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), bEntries, 2)

	aCounters, _ := GetCounters(a.ID)
	bCounters, _ := GetCounters(b.ID)
	assert.Zero(s.T(), aCounters.ImagesEdited)
	assert.Zero(s.T(), bCounters.ImagesEdited)
}

func (s *DatabaseTestSuite) TestIncrementCounterUnknownColumn() {
	account, _ := CreateAccount("oscar", "oscar@example.com", "hash", "")

	err := IncrementCounter(account.ID, "drop_tables", 1)
	assert.Error(s.T(), err)
}

func (s *DatabaseTestSuite) TestGetCountersMissingRow() {
	// Counters for an unknown account come back zeroed, not as an error
	counters, err := GetCounters(99999)
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), counters)
	assert.Zero(s.T(), counters.ImagesGenerated)
}

func (s *DatabaseTestSuite) TestRecomputeFavoriteFeature() {
	account, _ := CreateAccount("peggy", "peggy@example.com", "hash", "")

	InsertActivity(&models.ActivityEntry{AccountID: account.ID, Category: models.ActivityAuthentication, Description: "login"})
	InsertActivity(&models.ActivityEntry{AccountID: account.ID, Category: models.ActivityImageGeneration, Description: "hd_generation"})
	InsertActivity(&models.ActivityEntry{AccountID: account.ID, Category: models.ActivityImageGeneration, Description: "hd_generation"})
	InsertActivity(&models.ActivityEntry{AccountID: account.ID, Category: models.ActivityImageEditing, Description: "packshot"})

	err := RecomputeFavoriteFeature(account.ID)
	assert.NoError(s.T(), err)

	counters, _ := GetCounters(account.ID)
	assert.Equal(s.T(), string(models.ActivityImageGeneration), counters.FavoriteFeature)
}

func (s *DatabaseTestSuite) TestResetTokenLifecycle() {
	token := &models.PasswordResetToken{
		TokenDigest: "digest-1",
		Email:       "quinn@example.com",
		ExpiresAt:   time.Now().Add(1 * time.Hour),
	}
	assert.NoError(s.T(), InsertResetToken(token))

	retrieved, err := GetResetToken("digest-1")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "quinn@example.com", retrieved.Email)
	assert.False(s.T(), retrieved.Used)

	assert.NoError(s.T(), MarkResetTokenUsed("digest-1"))

	retrieved, err = GetResetToken("digest-1")
	assert.NoError(s.T(), err)
	assert.True(s.T(), retrieved.Used)

	_, err = GetResetToken("unknown-digest")
	assert.ErrorIs(s.T(), err, ErrTokenNotFound)
}

func (s *DatabaseTestSuite) TestCleanupExpiredResetTokens() {
	InsertResetToken(&models.PasswordResetToken{
		TokenDigest: "stale-digest",
		Email:       "a@example.com",
		ExpiresAt:   time.Now().Add(-1 * time.Hour),
	})
	InsertResetToken(&models.PasswordResetToken{
		TokenDigest: "fresh-digest",
		Email:       "b@example.com",
		ExpiresAt:   time.Now().Add(1 * time.Hour),
	})

	assert.NoError(s.T(), CleanupExpiredResetTokens())

	_, err := GetResetToken("stale-digest")
	assert.ErrorIs(s.T(), err, ErrTokenNotFound)

	_, err = GetResetToken("fresh-digest")
	assert.NoError(s.T(), err)
}

func (s *DatabaseTestSuite) TestSaveAndListImages() {
	account, _ := CreateAccount("rita", "rita@example.com", "hash", "")

	first := &models.ImageRecord{
		AccountID: account.ID,
		URL:       "https://cdn.example.com/one.png",
		Kind:      models.ImageHDGeneration,
		Prompt:    "a red sofa",
		Settings:  map[string]interface{}{"aspect_ratio": "1:1"},
		CreatedAt: time.Now().Add(-1 * time.Minute),
	}
	assert.NoError(s.T(), SaveImageRecord(first))
	assert.NotEmpty(s.T(), first.ID)

	second := &models.ImageRecord{
		AccountID: account.ID,
		URL:       "https://cdn.example.com/two.png",
		Kind:      models.ImagePackshot,
	}
	assert.NoError(s.T(), SaveImageRecord(second))

	images, err := ListRecentImages(account.ID, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), images, 2)
	assert.Equal(s.T(), second.ID, images[0].ID)
	assert.Equal(s.T(), "1:1", images[1].Settings["aspect_ratio"])

	record, err := GetImageRecord(first.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "a red sofa", record.Prompt)
}

func (s *DatabaseTestSuite) TestSetImageArchiveKey() {
	account, _ := CreateAccount("sybil", "sybil@example.com", "hash", "")

	record := &models.ImageRecord{
		AccountID: account.ID,
		URL:       "https://cdn.example.com/img.png",
		Kind:      models.ImageShadow,
	}
	assert.NoError(s.T(), SaveImageRecord(record))

	err := SetImageArchiveKey(record.ID, "accounts/uuid/images/img.png")
	assert.NoError(s.T(), err)

	updated, _ := GetImageRecord(record.ID)
	assert.NotNil(s.T(), updated.ArchiveKey)
	assert.Equal(s.T(), "accounts/uuid/images/img.png", *updated.ArchiveKey)

	err = SetImageArchiveKey("missing-id", "key")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestCreateProjectIncrementsCounter() {
	account, _ := CreateAccount("trent", "trent@example.com", "hash", "")

	project, err := CreateProject(account.ID, "Summer Campaign", "packshots for the summer line")
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), project.ID)
	assert.True(s.T(), project.IsActive)

	counters, _ := GetCounters(account.ID)
	assert.Equal(s.T(), int64(1), counters.Projects)

	projects, err := ListProjects(account.ID)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), projects, 1)
	assert.Equal(s.T(), "Summer Campaign", projects[0].Name)
}

package ledger

import (
	"encoding/json"

	"go.etcd.io/bbolt"

	"github.com/zombor/receipt-ledger/internal/extraction"
)

// DefaultModelID is the extraction model used until configuration says
// otherwise.
const DefaultModelID = "gemini-1.5-flash-latest"

// Settings is the persisted configuration state. The API key is stored in
// plaintext; readers must tolerate a first run where nothing is set.
type Settings struct {
	APIKey  string `json:"api_key"`
	ModelID string `json:"model_id"`
	Theme   string `json:"theme"`
}

// Settings returns the persisted settings, with defaults filled in for
// absent keys.
func (b *BoltStore) Settings() (*Settings, error) {
	s := &Settings{ModelID: DefaultModelID, Theme: "light"}
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(settingsBucketName)).Get([]byte(settingsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, s)
	})
	if err != nil {
		return nil, err
	}
	if s.ModelID == "" {
		s.ModelID = DefaultModelID
	}
	return s, nil
}

// SaveSettings persists the settings.
func (b *BoltStore) SaveSettings(s *Settings) error {
	return b.putSettingsKey(settingsKey, "settings", s)
}

// CachedModels returns the last fetched model catalog, or nil when no fetch
// has succeeded yet.
func (b *BoltStore) CachedModels() ([]extraction.ModelDescriptor, error) {
	var models []extraction.ModelDescriptor
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(settingsBucketName)).Get([]byte(modelsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &models)
	})
	if err != nil {
		return nil, err
	}
	return models, nil
}

// SaveCachedModels persists the model catalog for offline presentation.
func (b *BoltStore) SaveCachedModels(models []extraction.ModelDescriptor) error {
	return b.putSettingsKey(modelsKey, "model catalog", models)
}

func (b *BoltStore) putSettingsKey(key, op string, v any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		if err := tx.Bucket([]byte(settingsBucketName)).Put([]byte(key), data); err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		return nil
	})
}

package ledger

import (
	"encoding/json"
	"time"
)

// Record is one accepted receipt in the ledger.
type Record struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"` // free-form, expected YYYY/MM/DD
	Amount      int64     `json:"amount"` // whole currency units
	Payee       string    `json:"payee"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnmarshalJSON reads legacy records whose description was stored under a
// "purpose" key. Writes always emit "description".
func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	aux := struct {
		*alias
		Purpose string `json:"purpose"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.Description == "" && aux.Purpose != "" {
		r.Description = aux.Purpose
	}
	return nil
}

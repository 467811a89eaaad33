package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/keyreaper/keyreaper/internal/types"
)

// DefaultAckPath is where the acknowledge list lives in a repository.
const DefaultAckPath = "keyreaper.ack.json"

// AckList holds fingerprints of findings a human has reviewed and accepted.
// Acknowledged findings are suppressed from future runs. Only hashes are
// stored, never the secret values themselves.
type AckList struct {
	Items map[string]bool `json:"items"`
}

func NewAckList() AckList {
	return AckList{Items: map[string]bool{}}
}

func LoadAckList(path string) (AckList, error) {
	a := NewAckList()
	f, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	_ = json.Unmarshal(f, &a) //nolint:errcheck // Corrupt list reads as empty
	if a.Items == nil {
		a.Items = map[string]bool{}
	}
	return a, nil
}

func SaveAckList(path string, a AckList) error {
	buf, _ := json.MarshalIndent(a, "", "  ") //nolint:errcheck
	return os.WriteFile(path, buf, 0644)
}

// Add records findings as acknowledged. Returns how many were new.
func (a AckList) Add(findings ...types.Finding) int {
	added := 0
	for _, f := range findings {
		fp := Fingerprint(f)
		if !a.Items[fp] {
			a.Items[fp] = true
			added++
		}
	}
	return added
}

// Suppressed reports whether a finding has been acknowledged.
func (a AckList) Suppressed(f types.Finding) bool {
	return a.Items[Fingerprint(f)]
}

// SuppressFunc adapts the list into a suppression predicate.
func (a AckList) SuppressFunc() func(types.Finding) bool {
	return func(f types.Finding) bool {
		return a.Suppressed(f)
	}
}

// Fingerprint derives the stable identity of a finding. Two findings match
// when the same value appears at the same path under the same category.
func Fingerprint(f types.Finding) string {
	h := xxhash.Sum64String(f.Secret + "|" + f.Path + "|" + f.Category)
	return fmt.Sprintf("%016x", h)
}

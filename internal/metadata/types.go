package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Hash is an optional package hash. The zero value is absent.
type Hash struct {
	value string
	ok    bool
}

// Some returns a present Hash. An empty string yields an absent Hash.
func Some(hash string) Hash {
	if hash == "" {
		return Hash{}
	}
	return Hash{value: hash, ok: true}
}

// None returns an absent Hash.
func None() Hash {
	return Hash{}
}

// Get returns the hash and whether it is present.
func (h Hash) Get() (string, bool) {
	return h.value, h.ok
}

// IsSet reports whether the hash is present.
func (h Hash) IsSet() bool {
	return h.ok
}

// IsZero reports whether the hash is absent. encoding/json uses it for omitzero.
func (h Hash) IsZero() bool {
	return !h.ok
}

// Equal reports whether both hashes are absent or both hold the same value.
func (h Hash) Equal(other Hash) bool {
	return h.ok == other.ok && h.value == other.value
}

// String returns the hash or "<none>".
func (h Hash) String() string {
	if !h.ok {
		return "<none>"
	}
	return h.value
}

// MarshalJSON encodes a present hash as a string and an absent one as null.
func (h Hash) MarshalJSON() ([]byte, error) {
	if !h.ok {
		return []byte("null"), nil
	}
	return json.Marshal(h.value)
}

// UnmarshalJSON accepts a string or null.
func (h *Hash) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*h = Hash{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("package hash must be a string: %w", err)
	}
	*h = Some(s)
	return nil
}

// StatusRecord holds the current and previous package pointers of one
// application. It is written with the currentPackageHash and
// previousPackageHash keys. Records that use the shorter currentPackage and
// previousPackage keys are still read; a non-null long key wins over the
// short one.
type StatusRecord struct {
	CurrentPackage  Hash `json:"currentPackageHash,omitzero"`
	PreviousPackage Hash `json:"previousPackageHash,omitzero"`
}

// UnmarshalJSON accepts both key spellings.
func (s *StatusRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		CurrentPackageHash  *Hash `json:"currentPackageHash"`
		PreviousPackageHash *Hash `json:"previousPackageHash"`
		CurrentPackage      *Hash `json:"currentPackage"`
		PreviousPackage     *Hash `json:"previousPackage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = StatusRecord{
		CurrentPackage:  firstSet(raw.CurrentPackageHash, raw.CurrentPackage),
		PreviousPackage: firstSet(raw.PreviousPackageHash, raw.PreviousPackage),
	}
	return nil
}

func firstSet(hashes ...*Hash) Hash {
	for _, h := range hashes {
		if h != nil && h.IsSet() {
			return *h
		}
	}
	return None()
}

// PackageRecord is the package.json stored in every package folder. Fields
// other than the ones modeled here are kept in Extra and written back
// unchanged.
type PackageRecord struct {
	PackageHash string
	AppVersion  string
	Label       *string
	Extra       map[string]json.RawMessage
}

const (
	fieldPackageHash = "packageHash"
	fieldAppVersion  = "appVersion"
	fieldLabel       = "label"
)

// MarshalJSON merges the modeled fields over Extra.
func (p PackageRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[fieldPackageHash] = p.PackageHash
	out[fieldAppVersion] = p.AppVersion
	if p.Label != nil {
		out[fieldLabel] = *p.Label
	} else {
		delete(out, fieldLabel)
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the modeled fields from the rest.
func (p *PackageRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var rec PackageRecord
	if v, ok := raw[fieldPackageHash]; ok {
		if err := json.Unmarshal(v, &rec.PackageHash); err != nil {
			return fmt.Errorf("field %s: %w", fieldPackageHash, err)
		}
		delete(raw, fieldPackageHash)
	}
	if v, ok := raw[fieldAppVersion]; ok {
		if err := json.Unmarshal(v, &rec.AppVersion); err != nil {
			return fmt.Errorf("field %s: %w", fieldAppVersion, err)
		}
		delete(raw, fieldAppVersion)
	}
	if v, ok := raw[fieldLabel]; ok {
		if err := json.Unmarshal(v, &rec.Label); err != nil {
			return fmt.Errorf("field %s: %w", fieldLabel, err)
		}
		delete(raw, fieldLabel)
	}
	if len(raw) > 0 {
		rec.Extra = raw
	}

	*p = rec
	return nil
}

// DiffManifest is the hotcodepush.json carried by a diff update. When
// RetainedFiles is nil, every file of the current package except
// DeletedFiles is retained.
type DiffManifest struct {
	RetainedFiles []string `json:"retainedFiles,omitempty"`
	DeletedFiles  []string `json:"deletedFiles,omitempty"`
}

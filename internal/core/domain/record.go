package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Record is the structured metadata embedded in an image file. The file is
// the only authoritative copy; the index database merely caches it.
type Record struct {
	Tags       []string          // unique, normalized, order not significant
	Fields     map[string]string // user-defined key/value pairs
	Rating     int               // 0-5, 0 means unrated
	Generation *GenerationParams // provenance from the generating tool, immutable once captured
}

// GenerationParams holds the generation-tool provenance block. Raw is the
// original JSON payload and is preserved byte-for-byte; the parsed fields are
// a best-effort view for display and filtering.
type GenerationParams struct {
	Raw       json.RawMessage `json:"raw"`
	SourceKey string          `json:"source_key"` // metadata key the block was found under

	Prompt         string  `json:"prompt,omitempty"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Model          string  `json:"model,omitempty"`
	Seed           string  `json:"seed,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
	Sampler        string  `json:"sampler,omitempty"`
}

// NewRecord creates an empty metadata record
func NewRecord() *Record {
	return &Record{
		Tags:   []string{},
		Fields: make(map[string]string),
	}
}

// NormalizeTag canonicalizes a tag for storage and comparison
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// AddTag adds a tag to the record, returning true if the set changed
func (r *Record) AddTag(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" || r.HasTag(tag) {
		return false
	}
	r.Tags = append(r.Tags, tag)
	return true
}

// RemoveTag removes a tag from the record, returning true if the set changed
func (r *Record) RemoveTag(tag string) bool {
	tag = NormalizeTag(tag)
	for i, t := range r.Tags {
		if t == tag {
			r.Tags = append(r.Tags[:i], r.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// HasTag checks if the record carries a tag
func (r *Record) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SetField sets a custom field value
func (r *Record) SetField(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// DeleteField removes a custom field, returning true if it existed
func (r *Record) DeleteField(key string) bool {
	if _, ok := r.Fields[key]; !ok {
		return false
	}
	delete(r.Fields, key)
	return true
}

// SetRating sets the rating, clamped to the 0-5 range
func (r *Record) SetRating(rating int) {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	r.Rating = rating
}

// IsEmpty reports whether the record carries no data at all
func (r *Record) IsEmpty() bool {
	return len(r.Tags) == 0 && len(r.Fields) == 0 && r.Rating == 0 && r.Generation == nil
}

// SortedTags returns the tags in lexical order for stable serialization
func (r *Record) SortedTags() []string {
	tags := make([]string, len(r.Tags))
	copy(tags, r.Tags)
	sort.Strings(tags)
	return tags
}

// TagsString returns tags as a comma-separated string for display
func (r *Record) TagsString() string {
	if len(r.Tags) == 0 {
		return "-"
	}
	return strings.Join(r.SortedTags(), ", ")
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	out := NewRecord()
	out.Tags = append(out.Tags, r.Tags...)
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	out.Rating = r.Rating
	if r.Generation != nil {
		gen := *r.Generation
		gen.Raw = append(json.RawMessage(nil), r.Generation.Raw...)
		out.Generation = &gen
	}
	return out
}

// Equal compares two records. Tag order is ignored; generation blocks compare
// by raw payload and source key.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	if r.Rating != other.Rating {
		return false
	}
	if len(r.Tags) != len(other.Tags) || len(r.Fields) != len(other.Fields) {
		return false
	}
	for _, t := range r.Tags {
		if !other.HasTag(t) {
			return false
		}
	}
	for k, v := range r.Fields {
		if ov, ok := other.Fields[k]; !ok || ov != v {
			return false
		}
	}
	if (r.Generation == nil) != (other.Generation == nil) {
		return false
	}
	if r.Generation != nil {
		if r.Generation.SourceKey != other.Generation.SourceKey {
			return false
		}
		if !bytes.Equal(r.Generation.Raw, other.Generation.Raw) {
			return false
		}
	}
	return true
}

// Merge combines a freshly parsed record with one the user has already
// curated. Tags are an additive union, custom fields are last-write-wins per
// key, and an existing generation block is never replaced unless reparse is
// set. Neither input is modified.
func Merge(existing, incoming *Record, reparse bool) *Record {
	if existing == nil {
		existing = NewRecord()
	}
	if incoming == nil {
		incoming = NewRecord()
	}

	out := existing.Clone()

	for _, t := range incoming.Tags {
		out.AddTag(t)
	}

	for k, v := range incoming.Fields {
		out.SetField(k, v)
	}

	if incoming.Rating != 0 {
		out.SetRating(incoming.Rating)
	}

	if incoming.Generation != nil && (out.Generation == nil || reparse) {
		gen := *incoming.Generation
		gen.Raw = append(json.RawMessage(nil), incoming.Generation.Raw...)
		out.Generation = &gen
	}

	return out
}

package event

import (
	"encoding/json"
	"fmt"
)

// Opinions unifies the two representations the persisted data carries:
// catalog and legacy events embed the comment list, records that defer to
// the opinion service hold only a count. The zero value is an empty
// embedded list.
type Opinions struct {
	comments []string
	count    int
	remote   bool
}

// EmbeddedOpinions builds an opinions value holding the comments inline.
func EmbeddedOpinions(comments ...string) Opinions {
	copied := make([]string, len(comments))
	copy(copied, comments)
	return Opinions{comments: copied}
}

// RemoteOpinionCount builds an opinions value for events whose comments
// live in the opinion service.
func RemoteOpinionCount(n int) Opinions {
	if n < 0 {
		n = 0
	}
	return Opinions{count: n, remote: true}
}

// IsRemote reports whether the comments live in the opinion service.
func (o Opinions) IsRemote() bool { return o.remote }

// Count returns the number of opinions regardless of representation.
func (o Opinions) Count() int {
	if o.remote {
		return o.count
	}
	return len(o.comments)
}

// Comments returns a copy of the embedded comment list, or nil when the
// comments are remote.
func (o Opinions) Comments() []string {
	if o.remote {
		return nil
	}
	copied := make([]string, len(o.comments))
	copy(copied, o.comments)
	return copied
}

// Append returns a new value with comment added. Appending to a remote
// value only bumps the count; the comment itself belongs to the service.
func (o Opinions) Append(comment string) Opinions {
	if o.remote {
		return Opinions{count: o.count + 1, remote: true}
	}
	comments := make([]string, 0, len(o.comments)+1)
	comments = append(comments, o.comments...)
	comments = append(comments, comment)
	return Opinions{comments: comments}
}

// MarshalJSON writes an array for embedded comments and a bare number for
// remote counts, preserving whichever shape the value holds. An absent
// field always round-trips as an empty array.
func (o Opinions) MarshalJSON() ([]byte, error) {
	if o.remote {
		return json.Marshal(o.count)
	}
	if o.comments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.comments)
}

// UnmarshalJSON accepts an array of strings, a bare count, or null
// (treated as an empty embedded list).
func (o *Opinions) UnmarshalJSON(data []byte) error {
	trimmed := string(data)
	if trimmed == "null" {
		*o = Opinions{}
		return nil
	}

	var comments []string
	if err := json.Unmarshal(data, &comments); err == nil {
		*o = Opinions{comments: comments}
		return nil
	}

	var count int
	if err := json.Unmarshal(data, &count); err == nil {
		*o = RemoteOpinionCount(count)
		return nil
	}

	return fmt.Errorf("opinions must be a string array or a count, got %s", trimmed)
}

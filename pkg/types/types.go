package types

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Cluster is an ordered group of image paths. The first path is the
// representative every later candidate was compared against.
type Cluster []string

// Representative returns the first member of the cluster.
func (c Cluster) Representative() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// ClusterSet is the ordered list of clusters in discovery order
type ClusterSet []Cluster

// Paths flattens the set in cluster order, then member order.
func (s ClusterSet) Paths() []string {
	var out []string
	for _, c := range s {
		out = append(out, c...)
	}
	return out
}

// Stage names the step at which an image failed
type Stage string

const (
	StageDecode       Stage = "decode"
	StageCanonicalize Stage = "canonicalize"
	StageCompare      Stage = "compare"
)

// ImageError reports a failure for a single image, or for a single pair
// when Stage is StageCompare (Against then holds the representative).
// In JSON the cause is carried as its message; decoding restores Err as a
// plain error with that text.
type ImageError struct {
	Path    string
	Stage   Stage
	Against string
	Err     error
}

type imageErrorJSON struct {
	Path    string `json:"path"`
	Stage   Stage  `json:"stage"`
	Against string `json:"against,omitempty"`
	Message string `json:"message"`
}

// Message returns the text of the cause, or "" when there is none.
func (e *ImageError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ImageError) Error() string {
	s := string(e.Stage) + " " + e.Path
	if e.Against != "" {
		s += " against " + e.Against
	}
	if msg := e.Message(); msg != "" {
		s += ": " + msg
	}
	return s
}

func (e *ImageError) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageErrorJSON{
		Path:    e.Path,
		Stage:   e.Stage,
		Against: e.Against,
		Message: e.Message(),
	})
}

func (e *ImageError) UnmarshalJSON(data []byte) error {
	var v imageErrorJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = ImageError{Path: v.Path, Stage: v.Stage, Against: v.Against}
	if v.Message != "" {
		e.Err = errors.New(v.Message)
	}
	return nil
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// Status summarizes how a clustering run ended
type Status string

const (
	// StatusEmpty means there was nothing to cluster.
	StatusEmpty   Status = "empty"
	StatusDone    Status = "done"
	StatusPartial Status = "partial"
)

// Result is the outcome of one clustering run
type Result struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	Clusters ClusterSet    `json:"clusters"`
	Errors   []*ImageError `json:"errors,omitempty"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the paths that were left out of clustering.
func (r Result) Failed() []string {
	var out []string
	for _, e := range r.Errors {
		if e != nil && e.Stage != StageCompare {
			out = append(out, e.Path)
		}
	}
	return out
}

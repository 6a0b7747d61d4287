package types

import "time"

// BuildStatus is the lifecycle of a jar-catalog install/build job.
type BuildStatus string

const (
	BuildStatusPending  BuildStatus = "pending"
	BuildStatusRunning  BuildStatus = "running"
	BuildStatusReady    BuildStatus = "ready"
	BuildStatusError    BuildStatus = "error"
)

// ServerBuild tracks one installer run that produced (or is producing)
// a server's jar, driven by internal/jardl.
type ServerBuild struct {
	ID         string      `json:"buildId"`
	ServerID   string      `json:"serverId"`
	Type       ServerType  `json:"type"`
	MCVersion  string      `json:"version"`
	Build      string      `json:"build,omitempty"`
	Status     BuildStatus `json:"status"`
	Log        string      `json:"log,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// BuildRequest is the request body for installing/building a server jar
// via the jar catalog.
type BuildRequest struct {
	Type      ServerType `json:"type"`
	MCVersion string     `json:"version"`
	Build     string     `json:"build,omitempty"`
}

// JarVersionInfo is one entry in a jar-catalog version listing, lazily
// enriched with build metadata on first fetch.
type JarVersionInfo struct {
	Type         ServerType `json:"type"`
	MCVersion    string     `json:"version"`
	Build        string     `json:"build,omitempty"`
	Recommended  bool       `json:"recommended,omitempty"`
	RequireBuild bool       `json:"requireBuild,omitempty"`
	DownloadURL  string     `json:"-"`
	Filename     string     `json:"filename,omitempty"`
	JavaMajor    int        `json:"javaMajor,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	fetchedInfo  bool
}

// HasFetchedInfo reports whether the lazy build-info fields have been
// populated by a call to the downloader's info fetch.
func (v *JarVersionInfo) HasFetchedInfo() bool { return v.fetchedInfo }

// MarkFetched flags that lazy info has been populated.
func (v *JarVersionInfo) MarkFetched() { v.fetchedInfo = true }

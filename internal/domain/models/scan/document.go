package scan

// Status is the lifecycle state of a scan
type Status string

const (
	StatusScanning Status = "scanning"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// ComplianceStatus is the verdict of a finished scan
type ComplianceStatus string

const (
	ComplianceCompliant ComplianceStatus = "compliant"
	ComplianceIssues    ComplianceStatus = "issues"
	ComplianceReview    ComplianceStatus = "review"
)

// Document is one scan result kept in the saved history. JSON names match
// what the dashboard has always written to the blob.
type Document struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Size              string            `json:"size"`
	UploadTime        string            `json:"uploadTime"`
	Progress          int               `json:"progress"`
	Status            Status            `json:"status"`
	ComplianceStatus  ComplianceStatus  `json:"complianceStatus,omitempty"`
	ComplianceMessage string            `json:"complianceMessage,omitempty"`
	DetailedReport    *ComplianceReport `json:"detailedReport,omitempty"`
}

// ComplianceReport is the detailed breakdown returned by the scanning backend
type ComplianceReport struct {
	ComplianceScore   float64            `json:"compliance_score"`
	ComplianceStatus  string             `json:"compliance_status"`
	SummaryOfFindings string             `json:"summary_of_findings"`
	SectionBreakdown  string             `json:"section_breakdown"`
	SpecificIssues    string             `json:"specific_issues"`
	Recommendations   string             `json:"recommendations"`
	SectionScores     map[string]float64 `json:"section_scores"`
}

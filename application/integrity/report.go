package integrity

import "time"

// Severity ranks how urgently an issue needs attention
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IssueType identifies the class of problem a sweep found
type IssueType string

const (
	IssueNotesStructure         IssueType = "notes_structure"
	IssueCategoriesStructure    IssueType = "categories_structure"
	IssueSettingsStructure      IssueType = "settings_structure"
	IssueMissingDefaultCategory IssueType = "missing_default_category"
	IssueOrphanReference        IssueType = "orphan_reference"
	IssueDuplicateRecord        IssueType = "duplicate_record"
	IssueMissingField           IssueType = "missing_field"
	IssueSettingsOutOfRange     IssueType = "settings_out_of_range"
	IssueShadowExcess           IssueType = "shadow_excess"
	IssueBackupStoreUnavailable IssueType = "backup_store_unavailable"
	IssueBackupIndexDangling    IssueType = "backup_index_dangling"
	IssueBackupStale            IssueType = "backup_stale"
	IssueSweepFailed            IssueType = "sweep_failed"
)

// Issue is one finding of the audit. AffectedData names the record or
// collection the finding points at; SuggestedFix hints at the remedy.
type Issue struct {
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	Description  string    `json:"description"`
	AffectedData string    `json:"affectedData,omitempty"`
	SuggestedFix string    `json:"suggestedFix,omitempty"`
}

// Report is the outcome of a full audit run
type Report struct {
	CheckedAt time.Time `json:"checkedAt"`
	Issues    []Issue   `json:"issues"`
}

// IsHealthy reports whether the vault has no high or critical issues.
// Low and medium findings are cosmetic and do not fail a health check.
func (r *Report) IsHealthy() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityHigh || issue.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

// CountBySeverity tallies issues per severity level
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// RepairResult summarizes a repair run. Repaired counts the fixes applied;
// Actions describes them for logging and operator display.
type RepairResult struct {
	Repaired int      `json:"repaired"`
	Actions  []string `json:"actions,omitempty"`
	Errors   []string `json:"errors"`
}

package schema

// msmPriorities translates Jira priority names to MSM priority buckets.
// Anything outside these four keys falls back to the default.
var msmPriorities = map[string]string{
	"Not set": "P3 (Low)",
	"Minor":   "P3 (Low)",
	"Medium":  "P2 (Medium)",
	"Major":   "P1 (High)",
}

// MSM returns the best-effort 28-column upload schema. No input is
// required: an export missing a column simply yields defaults for every
// field derived from it. Only rows without a JIRA ID are lost.
func MSM() *Descriptor {
	return &Descriptor{
		Name:      "MSM",
		SheetName: "MSM Data",
		Strict:    false,
		KeyColumn: "JIRA ID",
		Inputs: []InputField{
			{Name: SrcIssueKey, Aliases: []string{"issue key", "key"}},
			{Name: SrcProjectName, Aliases: []string{"project name", "project"}},
			{Name: SrcSummary, Aliases: []string{"summary"}},
			{Name: SrcAssignee, Contains: []string{"assignee"}},
			{Name: SrcPriority, Aliases: []string{"priority"}},
			{Name: SrcStatus, Aliases: []string{"status"}},
			{Name: SrcPlatform, Contains: []string{"platform"}},
			{Name: SrcCreated, Contains: []string{"created"}},
			{Name: SrcUpdated, Contains: []string{"updated"}},
			{Name: SrcResolved, Contains: []string{"resolved"}},
			{Name: SrcWorklog, Contains: []string{"worklog", "time spent"}},
		},
		Fields: []Field{
			{Header: "S.No", Rule: Rule{Kind: RuleSequential}},
			{Header: "Tower", Rule: Rule{Kind: RuleCopy, Source: SrcProjectName}},
			{Header: "Application", Rule: Rule{Kind: RuleConstant, Value: "HMOF"}},
			{Header: "JIRA ID", Rule: Rule{Kind: RuleCopy, Source: SrcIssueKey}},
			{Header: "Priority", Rule: Rule{Kind: RuleLookup, Source: SrcPriority, Lookup: msmPriorities, Default: "P3 (Low)"}},
			{Header: "Issue Summary", Rule: Rule{Kind: RuleCopy, Source: SrcSummary}},
			{Header: "Assignee", Rule: Rule{Kind: RuleCopy, Source: SrcAssignee}},
			{Header: "Platform / Content / Data", Rule: Rule{Kind: RuleCopy, Source: SrcPlatform}},
			{Header: "Status", Rule: Rule{Kind: RuleCopy, Source: SrcStatus}},
			{Header: "Issue Status", Rule: Rule{Kind: RuleCopy, Source: SrcStatus}},
			{Header: "Month", Rule: Rule{Kind: RuleMonth}},
			{Header: "Issue Creation Time mm/dd/yyyy hh:mm:ss am/pm", Rule: Rule{Kind: RuleCopy, Source: SrcCreated}},
			{Header: "Issue Assigned Time (CTS)mm/dd/yyyy hh:mm:ss am/pm", Rule: Rule{Kind: RuleCopy, Source: SrcCreated}},
			{Header: "CTS Response Time mm/dd/yyyy hh:mm:ss am/pm", Rule: Rule{Kind: RuleCopy, Source: SrcUpdated}},
			{Header: "Response SLA Met?", Rule: Rule{Kind: RuleConstant, Value: "Yes"}},
			{Header: "CTS Resolution Time mm/dd/yyyy hh:mm:ss am/pm", Rule: Rule{Kind: RuleCopy, Source: SrcResolved}},
			{Header: "Resolution SLA Met?", Rule: Rule{Kind: RuleConditional, Source: "JIRA ID", Contains: "CSI", Then: "Yes", Else: "NA"}},
			{Header: "Last updated Date", Rule: Rule{Kind: RuleCopy, Source: SrcUpdated}},
			{Header: "Service Category", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Request Type", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Causal Code", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Resolution Code", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "High Level Debt Classification", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Technical Debt Classification", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Functional Debt Classification", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Operational Debt Classification", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Knowledge Debt Classification", Rule: Rule{Kind: RuleConstant, Value: ""}},
			{Header: "Time Spent()", Rule: Rule{Kind: RuleSecondsToHours, Source: SrcWorklog}, Numeric: true},
		},
	}
}

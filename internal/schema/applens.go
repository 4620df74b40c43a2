package schema

// Canonical input field names shared by both schemas.
const (
	SrcIssueKey    = "Issue Key"
	SrcIssueType   = "Issue Type"
	SrcUpdated     = "Updated"
	SrcStatus      = "Status"
	SrcResolved    = "Resolved"
	SrcProjectName = "Project Name"
	SrcSummary     = "Summary"
	SrcAssignee    = "Assignee"
	SrcPriority    = "Priority"
	SrcCreated     = "Created"
	SrcPlatform    = "Platform"
	SrcWorklog     = "Worklog"
)

// Applens returns the strict 8-column upload schema. Every input is
// required; headers must match their canonical name exactly after trimming
// and lowercasing.
func Applens() *Descriptor {
	return &Descriptor{
		Name:      "Applens",
		SheetName: "Sheet1",
		Strict:    true,
		KeyColumn: "Ticket ID",
		Inputs: []InputField{
			{Name: SrcIssueKey, Aliases: []string{"issue key"}},
			{Name: SrcIssueType, Aliases: []string{"issue type"}},
			{Name: SrcUpdated, Aliases: []string{"updated"}},
			{Name: SrcStatus, Aliases: []string{"status"}},
			{Name: SrcResolved, Aliases: []string{"resolved"}},
		},
		Fields: []Field{
			{Header: "Ticket ID", Rule: Rule{Kind: RuleCopy, Source: SrcIssueKey}},
			{Header: "Ticket Type", Rule: Rule{Kind: RuleCopy, Source: SrcIssueType}},
			{Header: "Open Date", Rule: Rule{Kind: RuleDate, Source: SrcUpdated}},
			{Header: "Priority", Rule: Rule{Kind: RuleConstant, Value: "NONE"}},
			{Header: "Status", Rule: Rule{Kind: RuleCopy, Source: SrcStatus}},
			{Header: "Application", Rule: Rule{Kind: RuleConstant, Value: "HMOF"}},
			{Header: "Assignment Group", Rule: Rule{Kind: RuleConstant, Value: "HMH Support Group"}},
			{Header: "Closed Date", Rule: Rule{Kind: RuleDate, Source: SrcResolved}},
		},
	}
}
